package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	models "SignalScan/internal/domain/models"
	xhttp "SignalScan/pkg/http"
	xlogger "SignalScan/pkg/logger"
	"SignalScan/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScanAPI is what the handler needs from the scan service.
type ScanAPI interface {
	Latest() (*models.ScanReport, bool)
	Submit(symbols []string) (string, error)
	Ledger(symbol string, st models.SignalType, since time.Time) []models.LedgerEntry
	Health(ctx context.Context) error
	Running() bool
}

// ScanEchoHandler exposes scan reports, manual triggers and the dedup ledger.
type ScanEchoHandler struct {
	logger        *xlogger.Logger
	scans         ScanAPI
	healthTimeout time.Duration
}

func NewScanEchoHandler(logger *xlogger.Logger, scans ScanAPI) *ScanEchoHandler {
	return &ScanEchoHandler{logger: logger, scans: scans, healthTimeout: 3 * time.Second}
}

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/scans/latest", h.LatestScan)
	g.POST("/scans", h.TriggerScan)
	g.GET("/ledger", h.Ledger)
}

type healthResponse struct {
	Status   string `json:"status"`
	Scanning bool   `json:"scanning"`
}

func (h *ScanEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.healthTimeout)
	defer cancel()

	if err := h.scans.Health(ctx); err != nil {
		h.logger.Warn("store health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, healthResponse{Status: "ok", Scanning: h.scans.Running()})
}

func (h *ScanEchoHandler) LatestScan(c echo.Context) error {
	report, ok := h.scans.Latest()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no scan has completed yet"))
	}
	return xhttp.SuccessResponse(c, report)
}

type scanAccepted struct {
	ScanID  string `json:"scan_id"`
	Symbols int    `json:"symbols"`
}

// TriggerScan starts a scan in the background and answers 202 with its ID.
// The report is served by /api/scans/latest once it finishes.
func (h *ScanEchoHandler) TriggerScan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id, err := h.scans.Submit(req.Symbols)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("scans are not accepted right now").WithError(err))
	}
	h.logger.Info("manual scan submitted",
		xlogger.String("scan_id", id),
		xlogger.Int("symbols", len(req.Symbols)),
	)
	return xhttp.AcceptedResponse(c, scanAccepted{ScanID: id, Symbols: len(req.Symbols)})
}

func (h *ScanEchoHandler) Ledger(c echo.Context) error {
	req := &models.LedgerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var since time.Time
	if req.Since != "" {
		t, ok := util.ParseTime(req.Since)
		if !ok {
			return xhttp.AppErrorResponse(c,
				xhttp.NewAppError("ERR_TIME", "since", "since must be RFC3339 or unix seconds", http.StatusBadRequest))
		}
		since = t
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	entries := h.scans.Ledger(symbol, models.SignalType(req.SignalType), since)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

var _ xhttp.Handler = (*ScanEchoHandler)(nil)
