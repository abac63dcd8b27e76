package srvreg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/attendly/timeclock/engine"
	"github.com/attendly/timeclock/repository/models"
)

var defaultHeaders = map[string]string{"Content-Type": "application/json"}

type clockActionBody struct {
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp,omitempty"`
}

// parseClockBody reads the shared clock-action body. The timestamp is
// optional RFC 3339; when omitted the engine uses its own clock.
func (sr *ServiceRegistry) parseClockBody(req *Request) (string, *time.Time, *Response) {
	var body clockActionBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return "", nil, &Response{
			StatusCode: http.StatusUnprocessableEntity,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid body format: %s"}`, err.Error()),
		}
	}
	if body.UserID == "" {
		return "", nil, &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       `{"error":"user_id is required"}`,
		}
	}

	var at *time.Time
	if body.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, body.Timestamp)
		if err != nil {
			return "", nil, &Response{
				StatusCode: http.StatusUnprocessableEntity,
				Headers:    defaultHeaders,
				Body:       fmt.Sprintf(`{"error":"Invalid timestamp, want RFC 3339: %s"}`, err.Error()),
			}
		}
		at = &ts
	}
	return body.UserID, at, nil
}

// failureResponse maps an engine failure to a JSON response. Validation
// failures come back 422, missing entities 404, write races 409 (retryable),
// storage problems 500.
func failureResponse(fail *engine.Failure) (*Response, error) {
	status := http.StatusInternalServerError
	switch fail.Kind {
	case engine.FailureValidation:
		status = http.StatusUnprocessableEntity
	case engine.FailureNotFound:
		status = http.StatusNotFound
	case engine.FailureConflict:
		status = http.StatusConflict
	}

	payload := map[string]interface{}{
		"error":     fail.Message,
		"code":      fail.Code,
		"kind":      fail.Kind,
		"retryable": fail.Retryable(),
	}
	if len(fail.Fields) > 0 {
		payload["validation_errors"] = fail.Fields
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Internal server error"}`,
		}, err
	}
	return &Response{
		StatusCode: status,
		Headers:    defaultHeaders,
		Body:       string(bodyBytes),
		Error:      fail.Message,
	}, nil
}

func jsonResponse(status int, payload interface{}) (*Response, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"error":"Failed to encode response"}`,
		}, err
	}
	return &Response{
		StatusCode: status,
		Headers:    defaultHeaders,
		Body:       string(bodyBytes),
	}, nil
}

func (sr *ServiceRegistry) ClockInHandler(ctx context.Context, req *Request) (*Response, error) {
	userID, at, errResp := sr.parseClockBody(req)
	if errResp != nil {
		return errResp, nil
	}
	result, fail := sr.engine.ClockIn(ctx, userID, at)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusCreated, result)
}

func (sr *ServiceRegistry) ClockOutHandler(ctx context.Context, req *Request) (*Response, error) {
	userID, at, errResp := sr.parseClockBody(req)
	if errResp != nil {
		return errResp, nil
	}
	result, fail := sr.engine.ClockOut(ctx, userID, at)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

func (sr *ServiceRegistry) StartLunchHandler(ctx context.Context, req *Request) (*Response, error) {
	userID, at, errResp := sr.parseClockBody(req)
	if errResp != nil {
		return errResp, nil
	}
	result, fail := sr.engine.StartLunch(ctx, userID, at)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

func (sr *ServiceRegistry) ResumeShiftHandler(ctx context.Context, req *Request) (*Response, error) {
	userID, at, errResp := sr.parseClockBody(req)
	if errResp != nil {
		return errResp, nil
	}
	result, fail := sr.engine.ResumeShift(ctx, userID, at)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

func (sr *ServiceRegistry) CurrentStatusHandler(ctx context.Context, req *Request) (*Response, error) {
	userID := pathParam("/clock/status/:userID", req.Path, "userID")
	result, fail := sr.engine.CurrentStatus(ctx, userID)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

func (sr *ServiceRegistry) DashboardStatsHandler(ctx context.Context, req *Request) (*Response, error) {
	userID := pathParam("/stats/dashboard/:userID", req.Path, "userID")
	result, fail := sr.engine.DashboardStats(ctx, userID)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

func (sr *ServiceRegistry) WeeklyStatsHandler(ctx context.Context, req *Request) (*Response, error) {
	userID := pathParam("/stats/weekly/:userID", req.Path, "userID")
	of, errResp := queryDate(req.Query, "week_of")
	if errResp != nil {
		return errResp, nil
	}
	result, fail := sr.engine.WeeklyStats(ctx, userID, of)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

func (sr *ServiceRegistry) MonthlyStatsHandler(ctx context.Context, req *Request) (*Response, error) {
	userID := pathParam("/stats/monthly/:userID", req.Path, "userID")
	of, errResp := queryDate(req.Query, "month_of")
	if errResp != nil {
		return errResp, nil
	}
	result, fail := sr.engine.MonthlyStats(ctx, userID, of)
	if fail != nil {
		return failureResponse(fail)
	}
	return jsonResponse(http.StatusOK, result)
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func queryDate(rawQuery, name string) (*time.Time, *Response) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil || values.Get(name) == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, values.Get(name))
	if err != nil {
		return nil, &Response{
			StatusCode: http.StatusBadRequest,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"error":"Invalid %s, want YYYY-MM-DD"}`, name),
		}
	}
	return &t, nil
}
