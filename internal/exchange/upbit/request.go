package upbit

import (
	"context"
	"net/http"
	"net/url"

	"kimchibot/internal/exchange"

	"github.com/pkg/errors"
)

type errorResponse struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, auth bool, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(exchange.ErrRejected, "Лимит запросов: %v", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetError(&errorResponse{})
	if out != nil {
		req.SetResult(out)
	}

	if auth {
		token, err := c.token(params)
		if err != nil {
			return err
		}
		req.SetAuthToken(token)
	}

	switch method {
	case http.MethodPost:
		body := make(map[string]string, len(params))
		for key := range params {
			body[key] = params.Get(key)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	default:
		if len(params) > 0 {
			req.SetQueryParamsFromValues(params)
		}
	}

	resp, err := req.Execute(method, path)
	if c.log != nil {
		c.log.WithFields(map[string]interface{}{
			"method": method,
			"path":   path,
		}).Debug("Запрос к бирже")
	}
	if err != nil {
		return errors.Wrapf(exchange.ErrRejected, "Ошибка запроса %s %s: %v", method, path, err)
	}

	if resp.IsError() {
		apiErr := &exchange.APIError{Status: resp.StatusCode(), Name: "http_error", Message: resp.Status()}
		if body, ok := resp.Error().(*errorResponse); ok && body.Error.Name != "" {
			apiErr.Name = body.Error.Name
			apiErr.Message = body.Error.Message
		}
		if c.log != nil {
			c.log.WithFields(map[string]interface{}{
				"method": method,
				"path":   path,
				"status": apiErr.Status,
				"name":   apiErr.Name,
			}).Warn("Биржа отклонила запрос")
		}
		return apiErr
	}

	return nil
}
