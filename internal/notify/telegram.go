// Package notify pushes Telegram alerts for listings priced well below
// their district's median. Alerts hang off the ingest path but never block
// or fail it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"cenometr/server/config"
	"cenometr/server/internal/models"
)

// SnapshotSource provides the latest district snapshot a listing is
// compared against. Satisfied by database.Database.
type SnapshotSource interface {
	LatestSnapshot(ctx context.Context, city, district string, offer models.OfferType) (*models.DistrictStats, error)
}

type Service struct {
	logger    *logrus.Logger
	client    *http.Client
	config    *config.Config
	snapshots SnapshotSource
}

func NewService(snapshots SnapshotSource, config *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config:    config,
		snapshots: snapshots,
	}
}

// NotifyAccepted scans freshly ingested listings and alerts on those priced
// at least the configured percentage below the latest district median.
// Implements ingest.Notifier; failures are logged and swallowed.
func (s *Service) NotifyAccepted(listings []models.Listing) {
	if !s.config.Notify.Enabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, l := range listings {
		snap, err := s.snapshots.LatestSnapshot(ctx, l.City, l.District, l.OfferType)
		if err != nil {
			s.logger.WithError(err).Warn("Skipping price alerts, snapshot lookup failed")
			return
		}
		if snap == nil || snap.MedianPriceM2 <= 0 {
			continue
		}

		below := (snap.MedianPriceM2 - l.PricePerArea) / snap.MedianPriceM2 * 100
		if below < s.config.Notify.BelowMedianPct {
			continue
		}

		if err := s.notifyUnderpriced(l, snap, below); err != nil {
			s.logger.WithError(err).WithField("external_id", l.ExternalID).
				Error("Failed to send price alert")
		}
	}
}

func (s *Service) notifyUnderpriced(l models.Listing, snap *models.DistrictStats, below float64) error {
	title := l.ExternalID
	if l.Title != nil && *l.Title != "" {
		title = *l.Title
	}

	message := fmt.Sprintf(
		"<b>💎 Below-median price spotted!</b>\n\n"+
			"🏠 %s\n"+
			"📍 %s / %s\n"+
			"💰 %.0f zł (%.0f zł/m²)\n"+
			"📊 %.1f%% below the district median (%.0f zł/m²)\n"+
			"📐 %.0f m²\n\n"+
			"🔗 <a href=\"%s\">Open listing</a>",
		title,
		l.City,
		l.District,
		l.Price,
		l.PricePerArea,
		below,
		snap.MedianPriceM2,
		l.SizeM2,
		l.URL,
	)

	return s.SendMessage(message)
}

// SendMessage delivers one HTML-formatted message to the configured chat.
func (s *Service) SendMessage(message string) error {
	if !s.config.Notify.Enabled {
		return nil
	}
	if s.config.Notify.BotToken == "" || s.config.Notify.ChatID == "" {
		return errors.New("telegram bot token and chat ID must both be configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":    s.config.Notify.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.config.Notify.BotToken)
	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to reach telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API rejected the message (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
