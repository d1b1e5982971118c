package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"PredictionTracker/internal/model"
	"PredictionTracker/internal/parser"
	"PredictionTracker/internal/recorder"
	"PredictionTracker/internal/tracker"
)

// Presenter renders controller replies for one front end.
type Presenter interface {
	Snapshot(snap *model.Snapshot) string
	Started(snap *model.Snapshot, warnings []error) string
	SessionList(snaps []model.Snapshot) string
	PredictionLog(records []model.PredictionRecord) string
	Message(text string) string
	Help() string
}

// Controller turns user commands into registry operations.
type Controller struct {
	parser   *parser.Parser
	registry *Registry
	rec      recorder.Recorder
	logPath  string
	now      func() time.Time
}

// NewController wires the parser and registry. Predictions are recorded to
// rec; logPath is the predictions log read back by the log command and may be
// empty.
func NewController(p *parser.Parser, reg *Registry, rec recorder.Recorder, logPath string) *Controller {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Controller{parser: p, registry: reg, rec: rec, logPath: logPath, now: time.Now}
}

// Registry returns the session registry.
func (c *Controller) Registry() *Registry { return c.registry }

// Track parses text, records the prediction and starts tracking it.
func (c *Controller) Track(ctx context.Context, user, text string) (*tracker.Session, []error, error) {
	res, err := c.parser.Parse(ctx, text)
	if err != nil {
		return nil, nil, err
	}

	id := uuid.NewString()
	if err := c.rec.RecordPrediction(&recorder.PredictionEvent{
		SessionID:  id,
		User:       user,
		Prediction: res.Prediction,
		CreatedAt:  c.now(),
	}); err != nil {
		slog.Error("record prediction failed",
			slog.String("rqID", RequestIDFromCtx(ctx)),
			slog.String("sessionID", id),
			slog.String("err", err.Error()),
		)
	}

	sess := c.registry.Start(id, res.Prediction, user)
	slog.Info("prediction tracked",
		slog.String("rqID", RequestIDFromCtx(ctx)),
		slog.String("sessionID", id),
		slog.String("user", user),
		slog.String("symbol", res.Prediction.Symbol),
	)
	return sess, res.Warnings, nil
}

// HandleCommand processes one terminal line and returns the reply rendered by
// view. Command words work with or without a leading slash, so a prediction
// whose name is a command word must go through "track".
func (c *Controller) HandleCommand(ctx context.Context, view Presenter, user, text string) string {
	return c.handle(ctx, view, user, text, false)
}

// HandleChat processes one chat message. Only slash commands ("/list",
// "/list@my_bot") are commands; any other text is a prediction.
func (c *Controller) HandleChat(ctx context.Context, view Presenter, user, text string) string {
	return c.handle(ctx, view, user, text, true)
}

func (c *Controller) handle(ctx context.Context, view Presenter, user, text string, slashOnly bool) string {
	ctx = WithRequestID(ctx)
	text = strings.TrimSpace(text)
	if text == "" {
		return view.Help()
	}

	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	slashed := strings.HasPrefix(cmd, "/")
	cmd = strings.ToLower(strings.TrimPrefix(cmd, "/"))
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	if slashOnly && !slashed {
		return c.track(ctx, view, user, text)
	}

	switch cmd {
	case "help", "start":
		return view.Help()
	case "list":
		return view.SessionList(c.registry.Snapshots())
	case "show":
		return c.show(view, arg)
	case "stop", "delete":
		return c.stop(view, arg)
	case "log":
		return c.predictionLog(view)
	case "track":
		if arg == "" {
			return view.Message("usage: track <name> <price> by <date>")
		}
		return c.track(ctx, view, user, arg)
	}
	if slashed {
		return view.Help()
	}
	return c.track(ctx, view, user, text)
}

func (c *Controller) track(ctx context.Context, view Presenter, user, text string) string {
	sess, warnings, err := c.Track(ctx, user, text)
	if err != nil {
		slog.Warn("prediction rejected",
			slog.String("rqID", RequestIDFromCtx(ctx)),
			slog.String("text", text),
			slog.String("err", err.Error()),
		)
		return view.Message(rejection(err))
	}
	snap := sess.Snapshot()
	return view.Started(&snap, warnings)
}

func (c *Controller) show(view Presenter, ref string) string {
	if ref == "" {
		snaps := c.registry.Snapshots()
		if len(snaps) != 1 {
			return view.Message("usage: show <id>")
		}
		return view.Snapshot(&snaps[0])
	}
	sess, err := c.registry.Find(ref)
	if err != nil {
		return view.Message(err.Error())
	}
	snap := sess.Snapshot()
	return view.Snapshot(&snap)
}

func (c *Controller) stop(view Presenter, ref string) string {
	if ref == "" {
		return view.Message("usage: stop <id>")
	}
	sess, err := c.registry.Stop(ref)
	if err != nil {
		return view.Message(err.Error())
	}
	return view.Message(fmt.Sprintf("Stopped tracking %s (%s)", sess.Prediction().Symbol, sess.ID()))
}

func (c *Controller) predictionLog(view Presenter) string {
	if c.logPath == "" {
		return view.Message("prediction log is disabled")
	}
	records, err := recorder.ReadPredictionLog(c.logPath)
	if err != nil {
		slog.Error("read prediction log failed", slog.String("path", c.logPath), slog.String("err", err.Error()))
		return view.Message("could not read prediction log")
	}
	return view.PredictionLog(records)
}

func rejection(err error) string {
	switch {
	case errors.Is(err, parser.ErrInsufficientInput):
		return "Please enter: <name> <price> by <date>, e.g. nvidia 145 by eod"
	case errors.Is(err, parser.ErrSymbolNotFound):
		return "Could not find a ticker symbol: " + err.Error()
	case errors.Is(err, parser.ErrPriceNotFound):
		return "Could not find a target price in your message"
	default:
		return "Could not parse prediction: " + err.Error()
	}
}
