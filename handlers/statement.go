package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	"coverly/middleware"
	"coverly/models"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// statementRow is one settled (or refunded) order as it appears on an
// earnings statement or the payout ledger. Columns are re-derived from the
// stored order on every read; there is no running balance to drift.
type statementRow struct {
	OrderID             string `json:"order_id"`
	Status              string `json:"status"`
	UpdatedAt           string `json:"updated_at"`
	GrossCents          int64  `json:"gross_cents"`
	PlatformFeeCents    int64  `json:"platform_fee_cents"`
	ProviderPayoutCents int64  `json:"provider_payout_cents"`
	TransferID          string `json:"transfer_id"`
	ProviderID          string `json:"provider_id,omitempty"`
}

type statementTotals struct {
	GrossCents          int64 `json:"gross_cents"`
	PlatformFeeCents    int64 `json:"platform_fee_cents"`
	ProviderPayoutCents int64 `json:"provider_payout_cents"`
}

// StatementHandler serves provider earnings statements and the admin payout
// ledger, as JSON or CSV.
type StatementHandler struct {
	Orders    orderRepo.OrderRepository
	Providers providerRepo.ProviderRepository
}

func NewStatementHandler(orders orderRepo.OrderRepository, providers providerRepo.ProviderRepository) *StatementHandler {
	return &StatementHandler{Orders: orders, Providers: providers}
}

// EarningsStatementHandler returns a provider's completed orders for one
// month. Owner-only.
func (h *StatementHandler) EarningsStatementHandler(c *gin.Context) {
	logger := getLogger(c)

	month := c.Query("month")
	if !monthPattern.MatchString(month) {
		utils.JSONError(c, http.StatusBadRequest, "invalid_month", "month must be formatted YYYY-MM")
		return
	}
	from, to, err := monthBounds(month)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_month", "month must be a real calendar month")
		return
	}

	prov, err := h.Providers.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "provider_not_found", "no such provider")
			return
		}
		logger.Error("provider lookup failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", "provider lookup failed")
		return
	}
	if prov.UserID != middleware.CallerID(c) {
		utils.JSONError(c, http.StatusForbidden, "forbidden", "not your earnings statement")
		return
	}

	orders, err := h.Orders.List(orderRepo.OrderFilter{
		ProviderID:  prov.ID,
		Status:      models.OrderCompleted,
		UpdatedFrom: from,
		UpdatedTo:   to,
	})
	if err != nil {
		logger.Error("earnings query failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", "earnings query failed")
		return
	}

	rows, totals := buildRows(orders, false)
	if c.Query("format") == "csv" {
		writeStatementCSV(c, "earnings-"+month+".csv", rows, false)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "rows": rows, "totals": totals})
}

// PayoutLedgerHandler returns every settled order on the platform, optionally
// bounded to one month. Admin-only by routing.
func (h *StatementHandler) PayoutLedgerHandler(c *gin.Context) {
	logger := getLogger(c)

	filter := orderRepo.OrderFilter{Status: models.OrderCompleted}
	month := c.Query("month")
	if month != "" {
		if !monthPattern.MatchString(month) {
			utils.JSONError(c, http.StatusBadRequest, "invalid_month", "month must be formatted YYYY-MM")
			return
		}
		from, to, err := monthBounds(month)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid_month", "month must be a real calendar month")
			return
		}
		filter.UpdatedFrom, filter.UpdatedTo = from, to
	}

	orders, err := h.Orders.List(filter)
	if err != nil {
		logger.Error("ledger query failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", "ledger query failed")
		return
	}

	rows, totals := buildRows(orders, true)
	if c.Query("format") == "csv" {
		writeStatementCSV(c, "payout-ledger.csv", rows, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "totals": totals})
}

func monthBounds(month string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, from.AddDate(0, 1, 0), nil
}

func buildRows(orders []models.Order, withProvider bool) ([]statementRow, statementTotals) {
	rows := make([]statementRow, 0, len(orders))
	var totals statementTotals
	for _, o := range orders {
		row := statementRow{
			OrderID:             o.ID,
			Status:              string(o.Status),
			UpdatedAt:           o.UpdatedAt.UTC().Format(time.RFC3339),
			GrossCents:          o.PriceCents,
			PlatformFeeCents:    o.PlatformFeeCents,
			ProviderPayoutCents: o.ProviderPayoutCents,
			TransferID:          o.TransferID,
		}
		if withProvider {
			row.ProviderID = o.ProviderID
		}
		rows = append(rows, row)
		totals.GrossCents += o.PriceCents
		totals.PlatformFeeCents += o.PlatformFeeCents
		totals.ProviderPayoutCents += o.ProviderPayoutCents
	}
	return rows, totals
}

func writeStatementCSV(c *gin.Context, filename string, rows []statementRow, withProvider bool) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	header := []string{"order_id", "status", "updated_at", "gross_cents", "platform_fee_cents", "provider_payout_cents", "transfer_id"}
	if withProvider {
		header = append(header, "provider_id")
	}
	_ = w.Write(header)
	for _, r := range rows {
		record := []string{
			r.OrderID,
			r.Status,
			r.UpdatedAt,
			strconv.FormatInt(r.GrossCents, 10),
			strconv.FormatInt(r.PlatformFeeCents, 10),
			strconv.FormatInt(r.ProviderPayoutCents, 10),
			r.TransferID,
		}
		if withProvider {
			record = append(record, r.ProviderID)
		}
		_ = w.Write(record)
	}
	w.Flush()
}
