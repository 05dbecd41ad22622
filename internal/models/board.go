package models

// Board колонки воронки для канбан-дашборда. Заявка с неканоническим
// статусом не попадает ни в одну колонку.
type Board struct {
	New    []Booking `json:"new"`
	Active []Booking `json:"active"` // confirmed + in_progress
	Paid   []Booking `json:"paid"`
	Done   []Booking `json:"done"`
}

// KPI сводные финансовые показатели по всем заявкам.
type KPI struct {
	Income float64 `json:"income"`
	Margin float64 `json:"margin"`
}

// Dashboard полный снимок главной страницы.
type Dashboard struct {
	Board    Board         `json:"board"`
	KPI      KPI           `json:"kpi"`
	Chat     []ChatMessage `json:"chat"` // последние сообщения, хронологически
	Managers []User        `json:"managers"`
}
