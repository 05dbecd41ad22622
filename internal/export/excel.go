package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tourcrm/internal/models"

	"github.com/xuri/excelize/v2"
)

// Builder строит Excel-отчёты по заявкам в заданную директорию.
type Builder struct {
	dir string
}

func NewBuilder(dir string) *Builder {
	return &Builder{dir: dir}
}

// BuildBookingsReport создает xlsx с заявками за период и финансовой
// сводкой (income и margin по формуле дашборда). Возвращает путь к файлу.
func (b *Builder) BuildBookingsReport(bookings []models.Booking, kpi models.KPI, startDate, endDate time.Time) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Заявки"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "I1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Клиент", "Телефон", "Тур", "Статус", "Приоритет", "Цена", "Себестоимость", "Дата тура"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A2", "I2", headerStyle)

	row := 3
	for _, booking := range bookings {
		values := []interface{}{
			booking.ID,
			booking.ClientName,
			booking.ClientPhone,
			booking.TourType,
			booking.Status,
			booking.Priority,
			booking.Price,
			booking.Cost,
			booking.TourDate.Format(models.TourDateFormat),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	// Финансовая сводка под таблицей
	row++
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Выручка")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), kpi.Income)
	row++
	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Маржа (за вычетом 15% накладных)")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), kpi.Margin)

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "D", 25)
	_ = f.SetColWidth(sheetName, "E", "I", 16)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format(models.TourDateFormat), endDate.Format(models.TourDateFormat))
	fullPath := filepath.Join(b.dir, fileName)

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("error saving report: %w", err)
	}

	return fullPath, nil
}
