package models

import "time"

// CashType distinguishes treasury income from expenses.
type CashType string

const (
	CashTypeIn  CashType = "IN"
	CashTypeOut CashType = "OUT"
)

// CashTransaction is one entry of a class treasury (kas) book.
type CashTransaction struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Type        CashType  `db:"type" json:"type"`
	Amount      int64     `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	RecordedBy  string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CashTransactionRequest records a treasury entry. Amounts are whole rupiah.
type CashTransactionRequest struct {
	ClassID     string   `json:"class_id" validate:"required"`
	Type        CashType `json:"type" validate:"required,cash_type"`
	Amount      int64    `json:"amount" validate:"required,gt=0"`
	Description string   `json:"description" validate:"required,max=255"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
}

// CashBalance aggregates a treasury book.
type CashBalance struct {
	ClassID  string `db:"class_id" json:"class_id"`
	TotalIn  int64  `db:"total_in" json:"total_in"`
	TotalOut int64  `db:"total_out" json:"total_out"`
	Balance  int64  `db:"-" json:"balance"`
}
