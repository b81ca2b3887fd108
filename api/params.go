package api

import (
	"strconv"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidFormat(name, err)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidFormat(name, err)
	}
	return n, nil
}

func queryDate(c *gin.Context, name string) (domain.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return domain.Date{}, apperr.MissingField(name)
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, apperr.InvalidFormat(name, err)
	}
	return d, nil
}

// dateRange reads start_date and end_date; end must not precede start.
func dateRange(c *gin.Context) (domain.Date, domain.Date, error) {
	from, err := queryDate(c, "start_date")
	if err != nil {
		return from, from, err
	}
	to, err := queryDate(c, "end_date")
	if err != nil {
		return from, to, err
	}
	if to.Before(from) {
		e := apperr.InvalidRange("end_date must not be before start_date")
		e.Field = "end_date"
		return from, to, e
	}
	return from, to, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.InvalidFormat("body", err)
	}
	return nil
}
