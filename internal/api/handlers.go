package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/auth"
	"github.com/abhisek/nextstep/internal/session"
)

type sessionFunc func(ctx context.Context, token string, st assessment.SubTest) (*assessment.Session, error)

// AnswerRequest is the body of POST /api/sessions/:subtest/answers. A null
// value submits no answer.
type AnswerRequest struct {
	QuestionID string  `json:"question_id"`
	Value      *string `json:"value"`
}

// AnswerResponse reports whether the answer counted.
type AnswerResponse struct {
	Accepted  bool                  `json:"accepted"`
	Judgement *assessment.Judgement `json:"judgement,omitempty"`
	Session   SessionResponse       `json:"session"`
}

// SessionResponse is a session plus the time left on its displayed
// question when a countdown is running.
type SessionResponse struct {
	*assessment.Session
	RemainingMS *int64 `json:"remaining_ms,omitempty"`
}

func (s *Server) view(sess *assessment.Session) SessionResponse {
	out := SessionResponse{Session: sess}
	if sess == nil {
		return out
	}
	if left, ok := s.orch.Countdown(sess.Key()); ok {
		ms := left.Milliseconds()
		out.RemainingMS = &ms
	}
	return out
}

func token(c echo.Context) string {
	return auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
}

func subTest(c echo.Context) (assessment.SubTest, error) {
	st, err := assessment.ParseSubTest(c.Param("subtest"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return st, nil
}

func (s *Server) sessionAction(fn sessionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := subTest(c)
		if err != nil {
			return err
		}
		sess, err := fn(c.Request().Context(), token(c), st)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, s.view(sess))
	}
}

func (s *Server) submit(c echo.Context) error {
	st, err := subTest(c)
	if err != nil {
		return err
	}
	req := &AnswerRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.QuestionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "must supply question_id")
	}

	res, err := s.orch.Submit(c.Request().Context(), token(c), st, session.Answer{QuestionID: req.QuestionID, Value: req.Value})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AnswerResponse{Accepted: res.Accepted, Judgement: res.Judgement, Session: s.view(res.Session)})
}

func (s *Server) candidate(c echo.Context) (string, error) {
	return s.auth.Authorize(c.Request().Context(), token(c))
}

func (s *Server) subTestResult(c echo.Context) error {
	st, err := subTest(c)
	if err != nil {
		return err
	}
	id, err := s.candidate(c)
	if err != nil {
		return err
	}
	res, err := s.agg.SubTestResult(c.Request().Context(), id, st)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) generate(c echo.Context) error {
	id, err := s.candidate(c)
	if err != nil {
		return err
	}
	fr, err := s.agg.Generate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fr)
}

func (s *Server) finalResult(c echo.Context) error {
	id, err := s.candidate(c)
	if err != nil {
		return err
	}
	fr, err := s.agg.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fr)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string               `json:"error"`
	Missing []assessment.SubTest `json:"missing,omitempty"`
}

// handleError maps domain errors to status codes.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}

	var (
		httpErr    *echo.HTTPError
		failed     *assessment.SubmissionFailedError
		incomplete *assessment.AggregationIncompleteError
	)
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			body.Error = msg
		} else {
			body.Error = http.StatusText(status)
		}
	case errors.Is(err, assessment.ErrNotAuthorized):
		status, body.Error = http.StatusUnauthorized, assessment.ErrNotAuthorized.Error()
	case errors.Is(err, assessment.ErrInvalidAnswer):
		status = http.StatusBadRequest
	case errors.Is(err, assessment.ErrSessionNotActive), errors.Is(err, assessment.ErrEndNotAllowed):
		status = http.StatusConflict
	case errors.As(err, &failed):
		status = http.StatusServiceUnavailable
	case errors.As(err, &incomplete):
		status, body.Missing = http.StatusUnprocessableEntity, incomplete.Missing
	case errors.Is(err, assessment.ErrNotFound):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if err := c.JSON(status, body); err != nil {
		s.log.Warn("write error response", zap.Error(err))
	}
}
