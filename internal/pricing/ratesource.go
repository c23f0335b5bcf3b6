package pricing

import (
	"context"
	"time"

	"kimchibot/internal/logger"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// RateSource отдаёт справочный курс USD/KRW. Документ: объект {"YYYY-MM-DD": rate}.
type RateSource struct {
	url  string
	http *resty.Client
	log  *logger.Logger
}

func NewRateSource(url string, timeout time.Duration, log *logger.Logger) *RateSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RateSource{
		url:  url,
		http: resty.New().SetTimeout(timeout),
		log:  log,
	}
}

func (s *RateSource) LatestRate(ctx context.Context) (float64, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return 0, errors.Wrap(err, "Не удалось получить курс")
	}
	if resp.IsError() {
		return 0, errors.Errorf("Источник курса вернул %s", resp.Status())
	}

	date, rate, err := latestRate(resp.String())
	if err != nil {
		return 0, err
	}

	if s.log != nil {
		s.log.WithFields(map[string]interface{}{
			"date": date,
			"rate": rate,
		}).Debug("Получен справочный курс")
	}
	return rate, nil
}

// latestRate выбирает запись с самой поздней датой. Даты в ISO-формате сравниваются как строки.
func latestRate(raw string) (string, float64, error) {
	if !gjson.Valid(raw) {
		return "", 0, errors.New("Некорректный JSON курса")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return "", 0, errors.New("Документ курса не является объектом")
	}

	var (
		latest string
		rate   float64
	)
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			return true
		}
		if date := key.String(); date > latest {
			latest = date
			rate = value.Float()
		}
		return true
	})

	if latest == "" {
		return "", 0, errors.New("В документе курса нет записей")
	}
	if rate <= 0 {
		return "", 0, errors.Errorf("Некорректный курс на %s: %v", latest, rate)
	}
	return latest, rate, nil
}
