package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/glamora/booking-core/internal/sweeper"
)

func autoCancellationStatsHandler(sw *sweeper.Sweeper, defaultGraceMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grace := defaultGraceMinutes
		if v := r.URL.Query().Get("grace_period_minutes"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid_grace_period", "grace_period_minutes must be a non-negative integer")
				return
			}
			grace = n
		}

		stats, err := sw.GetStats(r.Context(), grace)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func autoCancellationRunHandler(sw *sweeper.Sweeper, defaultGraceMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := AutoCancellationRunRequest{GracePeriodMinutes: defaultGraceMinutes}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		result, err := sw.Run(r.Context(), sweeper.Options{
			GracePeriodMinutes: req.GracePeriodMinutes,
			DryRun:             req.DryRun,
			NotifyClients:      req.NotifyClients,
			NotifyVendors:      req.NotifyVendors,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
