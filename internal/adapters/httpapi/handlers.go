package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"stockDashboard/internal/analysis/pipeline"
	"stockDashboard/internal/dashboard"
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"

	"github.com/gin-gonic/gin"
)

type option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type weekdayOption struct {
	Value domain.Weekday `json:"value"`
	Label string         `json:"label"`
}

type optionsResponse struct {
	Companies     []option         `json:"companies"`
	Granularities []string         `json:"granularities"`
	ChartTypes    []string         `json:"chartTypes"`
	Indicators    []option         `json:"indicators"`
	Weekdays      []weekdayOption  `json:"weekdays"`
	Defaults      domain.Selection `json:"defaults"`
	RSIEnabled    bool             `json:"rsiEnabled"`
}

type thresholdResponse struct {
	Tickers []domain.Ticker `json:"tickers"`
	Bound   int             `json:"bound"`
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getOptions(c *gin.Context) {
	resp := optionsResponse{
		Companies:     make([]option, 0, len(domain.Universe)),
		Granularities: make([]string, 0, len(domain.Granularities)),
		ChartTypes:    make([]string, 0, len(domain.ChartTypes)),
		Indicators:    make([]option, 0, len(domain.IndicatorKinds)),
		Weekdays:      make([]weekdayOption, 0, len(domain.AllWeekdays)),
		Defaults:      s.defaultSelection(),
		RSIEnabled:    s.cfg.RSIEnabled,
	}
	for _, t := range domain.Universe {
		resp.Companies = append(resp.Companies, option{Value: string(t), Label: t.DisplayName()})
	}
	for _, g := range domain.Granularities {
		resp.Granularities = append(resp.Granularities, string(g))
	}
	for _, ct := range domain.ChartTypes {
		resp.ChartTypes = append(resp.ChartTypes, string(ct))
	}
	for _, k := range domain.IndicatorKinds {
		resp.Indicators = append(resp.Indicators, option{Value: string(k), Label: k.Label()})
	}
	for _, d := range domain.AllWeekdays {
		resp.Weekdays = append(resp.Weekdays, weekdayOption{Value: d, Label: d.String()})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getThreshold(c *gin.Context) {
	tickers := s.defaultSelection().Tickers
	if raw, ok := c.GetQuery("tickers"); ok {
		tickers = domain.ParseTickers(raw)
	}

	table, err := s.tables.Table(c.Request.Context())
	if err != nil {
		s.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, thresholdResponse{
		Tickers: tickers,
		Bound:   pipeline.ComputeThresholdBound(table, tickers),
	})
}

func (s *Server) postDashboard(c *gin.Context) {
	sel := s.defaultSelection()
	if err := c.ShouldBindJSON(&sel); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(c, fmt.Errorf("decode selection: %v: %w", err, ports.ErrInvalidRequest))
		return
	}
	if sel.Tickers == nil {
		sel.Tickers = make([]domain.Ticker, 0)
	}
	if err := sel.Validate(); err != nil {
		s.errorResponse(c, fmt.Errorf("%v: %w", err, ports.ErrInvalidRequest))
		return
	}

	table, err := s.tables.Table(c.Request.Context())
	if err != nil {
		s.errorResponse(c, err)
		return
	}

	res, err := s.pipeline.Run(c.Request.Context(), table, sel)
	if err != nil {
		s.errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard.Build(res))
}
