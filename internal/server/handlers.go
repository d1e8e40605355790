package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/base-14/examples/go/parking-lot/internal/parking"
)

type Handler struct {
	parkingLot  *parking.InstrumentedParkingLot
	serviceName string
}

func NewHandler(parkingLot *parking.InstrumentedParkingLot, serviceName string) *Handler {
	return &Handler{
		parkingLot:  parkingLot,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkingLotCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Capacity <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Capacity must be greater than 0")
		return
	}

	if err := h.parkingLot.Create(ctx, req.Capacity); err != nil {
		h.writeLotError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Parking lot created successfully", map[string]any{
		"capacity": req.Capacity,
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Registration == "" || req.Color == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration and color are required")
		return
	}

	slotNumber, err := h.parkingLot.Park(ctx, req.Registration, req.Color)
	if err != nil {
		h.writeLotError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", ParkVehicleResponse{
		SlotNumber:   slotNumber,
		Registration: req.Registration,
		Color:        req.Color,
	})
}

func (h *Handler) LeaveSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LeaveSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SlotNumber <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Slot number must be greater than 0")
		return
	}

	if err := h.parkingLot.Leave(ctx, req.SlotNumber); err != nil {
		h.writeLotError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Slot vacated successfully", map[string]any{
		"slot_number": req.SlotNumber,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.parkingLot.GetStatus(ctx)
	if err != nil {
		h.writeLotError(w, r, err)
		return
	}

	slots := make([]SlotStatus, 0, len(status.Slots))
	for _, slot := range status.Slots {
		slots = append(slots, SlotStatus{
			SlotNumber:   slot.Number,
			Registration: slot.Vehicle.RegistrationNumber,
			Color:        slot.Vehicle.Color,
		})
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", StatusResponse{
		Capacity:  status.Capacity,
		Occupied:  len(slots),
		Available: status.Available,
		Slots:     slots,
	})
}

func (h *Handler) FindByRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	registration := chi.URLParam(r, "registration")
	if registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration number is required")
		return
	}

	slot, err := h.parkingLot.FindVehicle(ctx, registration)
	if err != nil {
		h.writeLotError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", FindVehicleResponse{
		SlotNumber:   slot.Number,
		Registration: slot.Vehicle.RegistrationNumber,
		Color:        slot.Vehicle.Color,
	})
}

func (h *Handler) RegistrationsByColor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	color := chi.URLParam(r, "color")

	registrations, err := h.parkingLot.RegistrationNumbersByColor(ctx, color)
	if err != nil {
		h.writeLotError(w, r, err)
		return
	}
	if registrations == nil {
		registrations = []string{}
	}

	WriteSuccess(ctx, w, "Registrations retrieved successfully", ColorRegistrationsResponse{
		Color:         color,
		Registrations: registrations,
	})
}

func (h *Handler) SlotsByColor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	color := chi.URLParam(r, "color")

	slotNumbers, err := h.parkingLot.SlotNumbersByColor(ctx, color)
	if err != nil {
		h.writeLotError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, "Slots retrieved successfully", ColorSlotsResponse{
		Color:       color,
		SlotNumbers: slotNumbers,
	})
}

// writeLotError maps parking errors to HTTP statuses.
func (h *Handler) writeLotError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, parking.ErrLotNotCreated):
		WriteError(ctx, w, http.StatusBadRequest, "Parking lot not created. Create parking lot first")
	case errors.Is(err, parking.ErrInvalidCapacity), errors.Is(err, parking.ErrInvalidVehicle):
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, parking.ErrLotFull):
		WriteError(ctx, w, http.StatusConflict, "Sorry, parking lot is full")
	case errors.Is(err, parking.ErrAlreadyParked):
		WriteError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, parking.ErrSlotNotInUse):
		WriteError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, parking.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
	default:
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
