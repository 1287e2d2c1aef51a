package email

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"stagholme/internal/domain"
)

const (
	calendarContentType = "text/calendar"
	calendarFilename    = "invitation.ics"
)

// composeMessage builds the raw MIME message for msg: a text/html/calendar
// alternative body plus the calendar as an invitation.ics attachment.
func composeMessage(from *mail.Address, msg *domain.OutgoingEmail, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create inline: %w", err)
	}
	if msg.Text != "" {
		if err := writeInlinePart(tw, "text/plain", nil, []byte(msg.Text)); err != nil {
			return nil, err
		}
	}
	if msg.HTML != "" {
		if err := writeInlinePart(tw, "text/html", nil, []byte(msg.HTML)); err != nil {
			return nil, err
		}
	}
	if len(msg.Calendar) > 0 {
		if err := writeInlinePart(tw, calendarContentType, map[string]string{"method": "REQUEST"}, msg.Calendar); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close inline: %w", err)
	}

	if len(msg.Calendar) > 0 {
		var ah mail.AttachmentHeader
		ah.SetContentType(calendarContentType, map[string]string{"method": "REQUEST", "charset": "utf-8"})
		ah.SetFilename(calendarFilename)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("create attachment: %w", err)
		}
		if _, err := aw.Write(msg.Calendar); err != nil {
			return nil, fmt.Errorf("write attachment: %w", err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("close attachment: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInlinePart(tw *mail.InlineWriter, contentType string, params map[string]string, body []byte) error {
	if params == nil {
		params = map[string]string{}
	}
	params["charset"] = "utf-8"
	var ih mail.InlineHeader
	ih.SetContentType(contentType, params)
	w, err := tw.CreatePart(ih)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return w.Close()
}
