package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/glamora/booking-core/internal/booking"
)

var validate = validator.New()

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_vendor_id", "vendor_id must be a valid UUID")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		var staffID *uuid.UUID
		if req.StaffID != "" {
			id, err := uuid.Parse(req.StaffID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
				return
			}
			staffID = &id
		}

		startMinute, err := booking.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", err.Error())
			return
		}
		endMinute, err := booking.ParseClock(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", err.Error())
			return
		}

		items := make([]booking.ServiceItem, 0, len(req.ServiceItems))
		for _, it := range req.ServiceItems {
			serviceID, err := uuid.Parse(it.ServiceID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
				return
			}
			item := booking.ServiceItem{ServiceID: serviceID, Price: it.Price}
			if it.StaffID != "" {
				id, err := uuid.Parse(it.StaffID)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid_staff_id", "service item staff_id must be a valid UUID")
					return
				}
				item.StaffID = &id
			}
			items = append(items, item)
		}

		appt, err := svc.Create(r.Context(), booking.CreateParams{
			VendorID:     vendorID,
			StaffID:      staffID,
			ClientID:     clientID,
			Date:         req.Date,
			StartMinute:  startMinute,
			EndMinute:    endMinute,
			ServiceItems: items,
			Discount:     req.Discount,
			Tax:          req.Tax,
			WeddingTeam:  req.WeddingTeam,
		})
		if err != nil {
			handleCreateError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(appt))
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func listBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if clientParam := q.Get("client_id"); clientParam != "" {
			clientID, err := uuid.Parse(clientParam)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
				return
			}

			limit, _ := strconv.Atoi(q.Get("limit"))
			offset, _ := strconv.Atoi(q.Get("offset"))

			appts, err := svc.ListByClient(r.Context(), clientID, limit, offset)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
			writeBookingList(w, appts)
			return
		}

		if vendorParam := q.Get("vendor_id"); vendorParam != "" {
			vendorID, err := uuid.Parse(vendorParam)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_vendor_id", "vendor_id must be a valid UUID")
				return
			}

			appts, err := svc.ListByVendor(r.Context(), vendorID, q.Get("date"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
				return
			}
			writeBookingList(w, appts)
			return
		}

		writeError(w, http.StatusBadRequest, "missing_filter", "client_id or vendor_id is required")
	}
}

func confirmBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.Confirm(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func completeBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		req := CompleteBookingRequest{Paid: true}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		appt, err := svc.Complete(r.Context(), id, req.Paid)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func cancelBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req CancelBookingRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		var reason *string
		if req.Reason != "" {
			reason = &req.Reason
		}

		appt, err := svc.Cancel(r.Context(), id, reason)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(appt))
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeBookingList(w http.ResponseWriter, appts []booking.Appointment) {
	resp := make([]BookingResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, toBookingResponse(&appts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrInvalidTimeRange),
		errors.Is(err, booking.ErrInvalidAmount),
		errors.Is(err, booking.ErrNoServiceItems):
		writeError(w, http.StatusBadRequest, "invalid_booking", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", "this time slot was just taken, please pick another")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
