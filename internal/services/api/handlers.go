package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"torrenthealth/internal/core/version"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/httpx"
	regdom "torrenthealth/internal/services/registry/domain"
	statdom "torrenthealth/internal/services/stats/domain"
)

type handlers struct {
	registry regdom.RegistryPort
	stats    statdom.StatsPort
	health   func(context.Context) error
}

func (h *handlers) healthz(r *http.Request) httpx.Response {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			return httpx.Error(perr.Wrapf(err, perr.ErrorCodeUnavailable, "store unreachable"))
		}
	}
	return httpx.OK(map[string]string{"status": "ok"})
}

func (h *handlers) version(*http.Request) httpx.Response {
	return httpx.OK(version.Info("torrenthealth-api"))
}

func (h *handlers) summary(r *http.Request) httpx.Response {
	rows, err := h.stats.Summary(r.Context())
	if err != nil {
		return httpx.Error(err)
	}
	return httpx.OK(rows)
}

func (h *handlers) listTorrents(r *http.Request) httpx.Response {
	rows, err := h.registry.List(r.Context())
	if err != nil {
		return httpx.Error(err)
	}
	return httpx.OK(rows)
}

func (h *handlers) addTorrent(r *http.Request) httpx.Response {
	in, err := httpx.ParseJSON[regdom.AddInput](r)
	if err != nil {
		return httpx.Error(err)
	}
	t, err := h.registry.Add(r.Context(), in)
	if err != nil {
		return httpx.Error(err)
	}
	return httpx.Created(t)
}

// importTorrents takes a raw name,magnet CSV body
func (h *handlers) importTorrents(r *http.Request) httpx.Response {
	defer func() { _ = r.Body.Close() }()
	stats, err := h.registry.ImportCSV(r.Context(), r.Body)
	if err != nil {
		return httpx.Error(err)
	}
	return httpx.OK(stats)
}

func (h *handlers) torrentStats(r *http.Request) httpx.Response {
	ts, err := h.stats.Torrent(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		return httpx.Error(err)
	}
	return httpx.OK(ts)
}

func (h *handlers) torrentTrackers(r *http.Request) httpx.Response {
	trackers, err := h.registry.TrackersFor(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		return httpx.Error(err)
	}
	return httpx.OK(trackers)
}
