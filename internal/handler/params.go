package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/config"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/service"
)

// pageParser turns ?page=&limit= into a pagination.Query. Bad values are
// rejected here so the paginator only ever sees a valid request.
type pageParser struct {
	defaultLimit int
	maxLimit     int
}

func newPageParser(cfg config.PaginationConfig) pageParser {
	p := pageParser{defaultLimit: cfg.DefaultLimit, maxLimit: cfg.MaxLimit}
	if p.maxLimit <= 0 || p.maxLimit > pagination.MaxLimit {
		p.maxLimit = pagination.MaxLimit
	}
	if p.defaultLimit <= 0 || p.defaultLimit > p.maxLimit {
		p.defaultLimit = min(pagination.DefaultLimit, p.maxLimit)
	}
	return p
}

func (p pageParser) parse(c *gin.Context) (pagination.Query, error) {
	req := pagination.Request{Page: pagination.DefaultPage, Limit: p.defaultLimit}
	var fe []service.FieldError

	if raw, ok := c.GetQuery(pagination.PageParam); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fe = append(fe, service.FieldError{Field: pagination.PageParam, Message: "must be a positive integer"})
		} else {
			req.Page = n
		}
	}
	if raw, ok := c.GetQuery(pagination.LimitParam); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > p.maxLimit {
			fe = append(fe, service.FieldError{
				Field:   pagination.LimitParam,
				Message: fmt.Sprintf("must be an integer between 1 and %d", p.maxLimit),
			})
		} else {
			req.Limit = n
		}
	}
	if err := service.NewInvalidInput(fe...); err != nil {
		return pagination.Query{}, err
	}
	return pagination.Query{Request: req, BaseURL: baseURL(c), Params: c.Request.URL.Query()}, nil
}

// baseURL is the absolute URL of the current request without its query.
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		switch p := strings.ToLower(strings.TrimSpace(strings.Split(fwd, ",")[0])); p {
		case "http", "https":
			scheme = p
		}
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.Path
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, service.NewInvalidInput(service.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return id, nil
}

// optionalInt reads a non-negative integer query parameter; absent means 0.
func optionalInt(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, service.NewInvalidInput(service.FieldError{Field: name, Message: "must be a non-negative integer"})
	}
	return n, nil
}

// bindJSON decodes the body; malformed JSON is reported as a field error on "body".
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return service.NewInvalidInput(service.FieldError{Field: "body", Message: "malformed JSON"})
	}
	return nil
}

func queryFlag(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "1", "true":
		return true
	default:
		return false
	}
}
