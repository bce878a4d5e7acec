package internal

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/dmitrymomot/relay/pkg/logger"
)

// Version is the framework version reported by Info.
const Version = "1.0.0"

// Info is a snapshot of the configuration and dispatch state of a request,
// meant for debug pages and "what matched" views. It marshals to JSON.
type Info struct {
	Query          map[string][]string `json:"query,omitempty"`
	Version        string              `json:"version"`
	Mapping        string              `json:"mapping"`
	Phases         string              `json:"phases"`
	CronMarker     string              `json:"cron_marker"`
	ViewPrefix     string              `json:"view_prefix"`
	Method         string              `json:"method"`
	RawPath        string              `json:"raw_path"`
	Route          string              `json:"route"`
	Controller     string              `json:"controller"`
	ControllerPath string              `json:"controller_path"`
	Action         string              `json:"action"`
	Params         []string            `json:"params"`
	Matches        []RouteMatch        `json:"matches"`
}

func newInfo(cfg dispatchConfig, st *RequestState, r *http.Request) Info {
	info := Info{
		Version:        Version,
		Mapping:        cfg.mapping.String(),
		Phases:         cfg.phases.String(),
		CronMarker:     cfg.cronMarker,
		ViewPrefix:     cfg.viewPrefix,
		Method:         st.Method,
		RawPath:        st.RawPath,
		Route:          st.Route,
		Controller:     st.ControllerID,
		ControllerPath: st.Controller,
		Action:         st.Action,
		Params:         slices.Clone(st.Params),
		Matches:        slices.Clone(st.Matches),
	}
	if q := r.URL.Query(); len(q) > 0 {
		info.Query = q
	}
	if info.Params == nil {
		info.Params = []string{}
	}
	if info.Matches == nil {
		info.Matches = []RouteMatch{}
	}
	return info
}

// DispatchExtractor returns a logger.ContextExtractor that adds the resolved
// controller and action to every log entry written during dispatch.
func DispatchExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		st, ok := ctx.Value(stateKey{}).(*RequestState)
		if !ok || st == nil || st.ControllerID == "" {
			return slog.Attr{}, false
		}
		return slog.Group("dispatch",
			slog.String("controller", st.ControllerID),
			slog.String("action", st.Action),
		), true
	}
}
