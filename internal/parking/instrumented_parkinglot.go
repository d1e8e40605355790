package parking

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/base-14/examples/go/parking-lot/internal/logging"
)

// Status is a point-in-time view of the lot.
type Status struct {
	Capacity  int
	Available int
	Slots     []Slot
}

// InstrumentedParkingLot owns a single ParkingLot, serializes mutations
// under one lock and records a span and metrics for every operation. The
// lot does not exist until Create is called.
type InstrumentedParkingLot struct {
	mu        sync.RWMutex
	lot       *ParkingLot
	telemetry *TelemetryProvider

	// Metrics
	parkingOperations metric.Int64Counter
	leavingOperations metric.Int64Counter
	queryOperations   metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	totalSlotsGauge   metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedParkingLot(telemetry *TelemetryProvider) (*InstrumentedParkingLot, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	leavingOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of leaving operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	queryOperations, err := meter.Int64Counter("query_operations_total",
		metric.WithDescription("Total number of status and lookup operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedParkingLot{
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		leavingOperations: leavingOperations,
		queryOperations:   queryOperations,
		occupancyGauge:    occupancyGauge,
		totalSlotsGauge:   totalSlotsGauge,
		operationDuration: operationDuration,
	}, nil
}

// Create builds the lot, replacing any existing one and every vehicle in it.
func (ipl *InstrumentedParkingLot) Create(ctx context.Context, capacity int) error {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.create",
		trace.WithAttributes(attribute.Int("parking_lot.capacity", capacity)))
	defer span.End()

	start := time.Now()

	lot, err := NewParkingLot(capacity)
	if err != nil {
		ipl.fail(span, err)
		ipl.recordDuration(ctx, start, "create", "failed")
		return err
	}

	ipl.mu.Lock()
	previous := ipl.lot
	ipl.lot = lot
	ipl.mu.Unlock()

	if previous != nil {
		span.AddEvent("parking_lot_replaced", trace.WithAttributes(
			attribute.Int("previous_capacity", previous.Capacity()),
			attribute.Int("discarded_vehicles", previous.Occupied()),
		))
		ipl.occupancyGauge.Add(ctx, -int64(previous.Occupied()))
		ipl.totalSlotsGauge.Add(ctx, int64(capacity-previous.Capacity()))
	} else {
		ipl.totalSlotsGauge.Add(ctx, int64(capacity))
	}

	ipl.recordDuration(ctx, start, "create", "success")
	logging.Info(ctx, "parking lot created", "capacity", capacity)

	return nil
}

// Created reports whether Create has succeeded at least once.
func (ipl *InstrumentedParkingLot) Created() bool {
	ipl.mu.RLock()
	defer ipl.mu.RUnlock()
	return ipl.lot != nil
}

func (ipl *InstrumentedParkingLot) Park(ctx context.Context, registrationNumber, color string) (int, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.park",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", registrationNumber),
			attribute.String("vehicle.color", color),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("finding_available_slot")

	ipl.mu.Lock()
	var slotNumber int
	err := ErrLotNotCreated
	if ipl.lot != nil {
		slotNumber, err = ipl.lot.Park(registrationNumber, color)
	}
	ipl.mu.Unlock()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_color", color),
	}

	if err != nil {
		ipl.fail(span, err)
		labels = append(labels, attribute.String("status", failureStatus(err)))
		logging.Warn(ctx, "park rejected", "registration_number", registrationNumber, "error", err)
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(attribute.Int("allocated_slot_number", slotNumber))
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.Int("slot_number", slotNumber),
		))
		ipl.occupancyGauge.Add(ctx, 1)
		logging.Debug(ctx, "vehicle parked", "registration_number", registrationNumber, "slot_number", slotNumber)
	}

	ipl.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return slotNumber, err
}

func (ipl *InstrumentedParkingLot) Leave(ctx context.Context, slotNumber int) error {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.leave",
		trace.WithAttributes(
			attribute.Int("slot_number", slotNumber),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("releasing_slot")

	ipl.mu.Lock()
	var vehicle Vehicle
	var occupied bool
	err := ErrLotNotCreated
	if ipl.lot != nil {
		vehicle, occupied = ipl.lot.VehicleAt(slotNumber)
		err = ipl.lot.Leave(slotNumber)
	}
	ipl.mu.Unlock()

	labels := []attribute.KeyValue{
		attribute.String("operation", "leave"),
	}

	if occupied {
		labels = append(labels, attribute.String("vehicle_color", vehicle.Color))
		span.SetAttributes(
			attribute.String("vehicle.registration_number", vehicle.RegistrationNumber),
			attribute.String("vehicle.color", vehicle.Color),
		)
	}

	if err != nil {
		ipl.fail(span, err)
		labels = append(labels, attribute.String("status", failureStatus(err)))
		logging.Warn(ctx, "leave rejected", "slot_number", slotNumber, "error", err)
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("slot_released")
		ipl.occupancyGauge.Add(ctx, -1)
		logging.Debug(ctx, "slot released", "slot_number", slotNumber, "registration_number", vehicle.RegistrationNumber)
	}

	ipl.leavingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return err
}

func (ipl *InstrumentedParkingLot) GetStatus(ctx context.Context) (*Status, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_status")
	defer span.End()

	start := time.Now()

	span.AddEvent("retrieving_status")

	ipl.mu.RLock()
	var status *Status
	if ipl.lot != nil {
		status = &Status{
			Capacity:  ipl.lot.Capacity(),
			Available: ipl.lot.Available(),
			Slots:     ipl.lot.GetStatus(),
		}
	}
	ipl.mu.RUnlock()

	if status == nil {
		ipl.fail(span, ErrLotNotCreated)
		ipl.recordQuery(ctx, start, "get_status", "failed")
		return nil, ErrLotNotCreated
	}

	span.SetAttributes(
		attribute.Int("occupied_slots_count", len(status.Slots)),
		attribute.Int("total_capacity", status.Capacity),
	)
	ipl.recordQuery(ctx, start, "get_status", "success")

	return status, nil
}

func (ipl *InstrumentedParkingLot) RegistrationNumbersByColor(ctx context.Context, color string) ([]string, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.registrations_by_color",
		trace.WithAttributes(attribute.String("vehicle.color", color)))
	defer span.End()

	start := time.Now()

	ipl.mu.RLock()
	var registrations []string
	err := ErrLotNotCreated
	if ipl.lot != nil {
		registrations, err = ipl.lot.RegistrationNumbersByColor(color), nil
	}
	ipl.mu.RUnlock()

	if err != nil {
		ipl.fail(span, err)
		ipl.recordQuery(ctx, start, "registrations_by_color", "failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_count", len(registrations)))
	ipl.recordQuery(ctx, start, "registrations_by_color", "success")

	return registrations, nil
}

func (ipl *InstrumentedParkingLot) SlotNumbersByColor(ctx context.Context, color string) ([]int, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.slots_by_color",
		trace.WithAttributes(attribute.String("vehicle.color", color)))
	defer span.End()

	start := time.Now()

	ipl.mu.RLock()
	var slotNumbers []int
	err := ErrLotNotCreated
	if ipl.lot != nil {
		slotNumbers, err = ipl.lot.SlotNumbersByColor(color), nil
	}
	ipl.mu.RUnlock()

	if err != nil {
		ipl.fail(span, err)
		ipl.recordQuery(ctx, start, "slots_by_color", "failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_count", len(slotNumbers)))
	ipl.recordQuery(ctx, start, "slots_by_color", "success")

	return slotNumbers, nil
}

func (ipl *InstrumentedParkingLot) GetSlotByRegistrationNumber(ctx context.Context, registrationNumber string) (int, error) {
	slot, err := ipl.FindVehicle(ctx, registrationNumber)
	return slot.Number, err
}

// FindVehicle returns the slot and vehicle for a parked registration number.
func (ipl *InstrumentedParkingLot) FindVehicle(ctx context.Context, registrationNumber string) (Slot, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_slot_by_registration",
		trace.WithAttributes(
			attribute.String("registration_number", registrationNumber),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("searching_by_registration")

	ipl.mu.RLock()
	var slot Slot
	err := ErrLotNotCreated
	if ipl.lot != nil {
		slot.Number, err = ipl.lot.GetSlotByRegistrationNumber(registrationNumber)
		if err == nil {
			slot.Vehicle, _ = ipl.lot.VehicleAt(slot.Number)
		}
	}
	ipl.mu.RUnlock()

	switch {
	case errors.Is(err, ErrNotFound):
		span.AddEvent("vehicle_not_found")
		ipl.recordQuery(ctx, start, "get_slot_by_registration", "not_found")
	case err != nil:
		ipl.fail(span, err)
		ipl.recordQuery(ctx, start, "get_slot_by_registration", "failed")
	default:
		span.SetAttributes(attribute.Int("found_slot_number", slot.Number))
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("slot_number", slot.Number),
		))
		ipl.recordQuery(ctx, start, "get_slot_by_registration", "found")
	}

	return slot, err
}

// Snapshot reads capacity and occupancy without tracing. ok is false until
// the lot has been created.
func (ipl *InstrumentedParkingLot) Snapshot() (capacity, occupied int, ok bool) {
	ipl.mu.RLock()
	defer ipl.mu.RUnlock()
	if ipl.lot == nil {
		return 0, 0, false
	}
	return ipl.lot.Capacity(), ipl.lot.Occupied(), true
}

func (ipl *InstrumentedParkingLot) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (ipl *InstrumentedParkingLot) recordQuery(ctx context.Context, start time.Time, operation, status string) {
	ipl.queryOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	ipl.recordDuration(ctx, start, operation, status)
}

func (ipl *InstrumentedParkingLot) recordDuration(ctx context.Context, start time.Time, operation, status string) {
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// failureStatus is the metric label for a rejected park or leave.
func failureStatus(err error) string {
	switch {
	case errors.Is(err, ErrLotFull):
		return "lot_full"
	case errors.Is(err, ErrSlotNotInUse):
		return "not_in_use"
	case errors.Is(err, ErrAlreadyParked):
		return "already_parked"
	case errors.Is(err, ErrLotNotCreated):
		return "not_created"
	default:
		return "failed"
	}
}
