package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/a-h/templ"
)

// RenderHTML renders a templ component into msg.HTML.
func RenderHTML(ctx context.Context, msg *Message, component templ.Component) error {
	var sb strings.Builder
	if err := component.Render(ctx, &sb); err != nil {
		return errors.Join(ErrRenderFailed, err)
	}
	msg.HTML = sb.String()
	return nil
}
