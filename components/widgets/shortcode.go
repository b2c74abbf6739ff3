package widgets

import (
	"bytes"
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/record"
)

// ShortcodeTag is the tag published on init.
const ShortcodeTag = "widget"

// ShortcodeView is the template rendered for one widget.
const ShortcodeView = "widget"

// shortcode renders [widget id="N"].  Failures are hidden behind HTML
// comments so visitors never see errors inside page content.
func (c *Comp) shortcode(ctx context.Context, atts map[string]string, _ string) (string, error) {
	id, err := strconv.ParseInt(atts["id"], 10, 64)
	if err != nil || id <= 0 {
		return "<!-- widget: missing or invalid id -->", nil
	}

	rec, err := record.Get[Widget](ctx, c.backend, id, c.opts...)
	switch {
	case errors.Is(err, record.ErrNotFound):
		return "<!-- widget not found -->", nil
	case err != nil:
		return "", err
	}
	if c.views == nil {
		return "", errors.New("widgets: no view loader")
	}

	var buf bytes.Buffer
	if err := c.views.Render(&buf, ShortcodeView, resource{ID: id, Widget: rec.Fields()}); err != nil {
		zap.L().Error("widget shortcode render", zap.Int64("id", id), zap.Error(err))
		return "<!-- widget error -->", nil
	}
	return buf.String(), nil
}
