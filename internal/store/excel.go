package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"soulcare/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExcelStore keeps the availability sheet in a local .xlsx workbook.
// The whole-store mutex turns the optimistic check-then-write into an
// atomic operation within this process; concurrent processes editing
// the same file are not supported.
type ExcelStore struct {
	path   string
	sheet  string
	mu     sync.Mutex
	logger zerolog.Logger
}

var excelHeader = []string{"Date", "Time Slot", "Status", "Name", "Email"}

func NewExcelStore(path, sheet string, logger *zerolog.Logger) (*ExcelStore, error) {
	s := &ExcelStore{path: path, sheet: sheet}
	if logger != nil {
		s.logger = logger.With().Str("component", "excel-store").Logger()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.createWorkbook(); err != nil {
			return nil, fmt.Errorf("create workbook: %w", err)
		}
		s.logger.Info().Str("path", path).Msg("created empty availability workbook")
	}

	// Fail fast on unreadable or corrupt files.
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	return s, nil
}

func (s *ExcelStore) createWorkbook() error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(s.sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	for col, title := range excelHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(s.sheet, cell, title)
	}

	if s.sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	return f.SaveAs(s.path)
}

func (s *ExcelStore) Snapshot(ctx context.Context) ([]models.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *ExcelStore) readAll() ([]models.Slot, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var slots []models.Slot
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		slot := rowToSlot(row)
		if slot.Date == "" || slot.TimeSlot == "" {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func rowToSlot(row []string) models.Slot {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return models.Slot{
		Date:     get(0),
		TimeSlot: get(1),
		Status:   get(2),
		Name:     get(3),
		Email:    get(4),
	}
}

func (s *ExcelStore) CommitBooking(ctx context.Context, date, timeSlot, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		slot := rowToSlot(row)
		if slot.Date != date || slot.TimeSlot != timeSlot {
			continue
		}
		if !slot.IsOpen() {
			return ErrSlotTaken
		}

		// Columns C, D, E hold status, name, email.
		rowNum := i + 1
		writes := []struct {
			col   string
			value string
		}{
			{"C", models.StatusBooked},
			{"D", name},
			{"E", email},
		}
		for _, w := range writes {
			if err := f.SetCellValue(s.sheet, fmt.Sprintf("%s%d", w.col, rowNum), w.value); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		if err := f.Save(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		s.logger.Info().Str("date", date).Str("time_slot", timeSlot).Msg("booking committed")
		return nil
	}

	return ErrSlotNotFound
}
