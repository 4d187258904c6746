package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	"retracer/internal/infra/config"
)

// Client wraps whatsmeow.Client together with its session store.
type Client struct {
	WAClient *whatsmeow.Client
	Device   *wastore.Device
	Log      waLog.Logger
	Config   *config.Config

	db        *sql.DB
	container *sqlstore.Container
}

// NewClient opens the session database and creates the transport client.
func NewClient(cfg *config.Config, log waLog.Logger) (*Client, error) {
	dbPath := filepath.Join(cfg.StorePath, "session.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	container := sqlstore.NewWithDB(db, "sqlite3", log.Sub("whatsmeow"))
	if err := container.Upgrade(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to upgrade session schema: %w", err)
	}

	device, err := getDevice(container)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	waClient := whatsmeow.NewClient(device, log.Sub("whatsmeow"))
	waClient.EnableAutoReconnect = true
	waClient.AutoTrustIdentity = true

	return &Client{
		WAClient:  waClient,
		Device:    device,
		Log:       log.Sub("Client"),
		Config:    cfg,
		db:        db,
		container: container,
	}, nil
}

func getDevice(container *sqlstore.Container) (*wastore.Device, error) {
	devices, err := container.GetAllDevices(context.Background())
	if err != nil {
		return nil, err
	}
	if len(devices) > 0 {
		return devices[0], nil
	}
	return container.NewDevice(), nil
}

// IsLoggedIn returns true if the client has stored credentials.
func (c *Client) IsLoggedIn() bool {
	return c.Device.ID != nil
}

// GetJID returns the client's own JID, or the zero JID when unpaired.
func (c *Client) GetJID() types.JID {
	if c.Device.ID != nil {
		return *c.Device.ID
	}
	return types.JID{}
}

// Connect connects to WhatsApp.
func (c *Client) Connect() error {
	return c.WAClient.Connect()
}

// Disconnect disconnects from WhatsApp.
func (c *Client) Disconnect() {
	c.WAClient.Disconnect()
}

// GetQRChannel returns a channel for QR pairing events.
func (c *Client) GetQRChannel(ctx context.Context) (<-chan whatsmeow.QRChannelItem, error) {
	return c.WAClient.GetQRChannel(ctx)
}

// Underlying returns the wrapped whatsmeow.Client.
func (c *Client) Underlying() *whatsmeow.Client {
	return c.WAClient
}

// Close disconnects and closes the session database.
func (c *Client) Close() error {
	c.Disconnect()
	return c.db.Close()
}
