package store

import (
	"context"
	"fmt"
	"os"

	"soulcare/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore reads and writes the availability sheet in a Google
// spreadsheet using service-account credentials.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheet         string
	logger        zerolog.Logger
}

func NewSheetsStore(ctx context.Context, credentialsFile, spreadsheetID, sheet string, logger *zerolog.Logger) (*SheetsStore, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := jwtConfig.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	s := &SheetsStore{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
	}
	if logger != nil {
		s.logger = logger.With().Str("component", "sheets-store").Logger()
	}
	return s, nil
}

// TestConnection reads the header cell to verify access.
func (s *SheetsStore) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

func (s *SheetsStore) Snapshot(ctx context.Context) ([]models.Slot, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var slots []models.Slot
	for _, row := range resp.Values {
		slot := valuesToSlot(row)
		if slot.Date == "" || slot.TimeSlot == "" {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *SheetsStore) CommitBooking(ctx context.Context, date, timeSlot, name, email string) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for i, row := range resp.Values {
		slot := valuesToSlot(row)
		if slot.Date != date || slot.TimeSlot != timeSlot {
			continue
		}
		// Re-check right before the write. The window between this read
		// and the update below is the accepted optimistic-concurrency gap.
		if !slot.IsOpen() {
			return ErrSlotTaken
		}

		rowNum := i + 2 // data starts at row 2
		writeRange := fmt.Sprintf("%s!C%d:E%d", s.sheet, rowNum, rowNum)
		valueRange := &sheets.ValueRange{
			Values: [][]interface{}{{models.StatusBooked, name, email}},
		}
		_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, writeRange, valueRange).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		s.logger.Info().Str("date", date).Str("time_slot", timeSlot).Msg("booking committed")
		return nil
	}

	return ErrSlotNotFound
}

func (s *SheetsStore) dataRange() string {
	return s.sheet + "!A2:E"
}

func valuesToSlot(row []interface{}) models.Slot {
	get := func(i int) string {
		if i >= len(row) {
			return ""
		}
		if v, ok := row[i].(string); ok {
			return v
		}
		return fmt.Sprintf("%v", row[i])
	}
	return models.Slot{
		Date:     get(0),
		TimeSlot: get(1),
		Status:   get(2),
		Name:     get(3),
		Email:    get(4),
	}
}
