package parking

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/base-14/examples/go/parking-lot/internal/logging"
)

const exitCommand = "exit"

// Shell reads one command per line and prints the result of running it
// against the parking lot.
type Shell struct {
	parkingLot *InstrumentedParkingLot
	telemetry  *TelemetryProvider
	scanner    *bufio.Scanner
	out        io.Writer
}

func NewShell(parkingLot *InstrumentedParkingLot, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		parkingLot: parkingLot,
		telemetry:  telemetry,
		scanner:    bufio.NewScanner(in),
		out:        out,
	}
}

// Run processes input until it is exhausted, an exit command is read or ctx
// is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	defer span.AddEvent("shell_ended")

	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		done := s.processCommand(cmdCtx, input)
		cmdSpan.End()

		if done {
			span.AddEvent("exit_requested")
			return nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrap(err, "read commands")
	}
	return nil
}

// processCommand reports whether the shell should stop.
func (s *Shell) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	command := parts[0]
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_parking_lot":
		s.handleCreateParkingLot(ctx, parts)
	case "park":
		s.handlePark(ctx, parts)
	case "leave":
		s.handleLeave(ctx, parts)
	case "status":
		s.handleStatus(ctx, parts)
	case "registration_numbers_for_cars_with_colour":
		s.handleRegistrationNumbersForColour(ctx, parts)
	case "slot_numbers_for_cars_with_colour":
		s.handleSlotNumbersForColour(ctx, parts)
	case "slot_number_for_registration_number":
		s.handleSlotNumberForRegistrationNumber(ctx, parts)
	case exitCommand:
		return true
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		logging.Debug(ctx, "unknown shell command", "command", command)
		s.println("Unknown command:", command)
	}
	return false
}

func (s *Shell) handleCreateParkingLot(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 2 {
		s.usage(span, "create_parking_lot <capacity>")
		return
	}

	capacity, err := strconv.Atoi(parts[1])
	if err != nil || capacity <= 0 {
		span.AddEvent("invalid_capacity")
		s.println("Invalid capacity")
		return
	}

	if err := s.parkingLot.Create(ctx, capacity); err != nil {
		s.printf("Error creating parking lot: %s\n", err)
		return
	}

	s.printf("Created a parking lot with %d slots\n", capacity)
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 3 {
		s.usage(span, "park <registration_number> <colour>")
		return
	}

	slotNumber, err := s.parkingLot.Park(ctx, parts[1], parts[2])
	switch {
	case err == nil:
		s.printf("Allocated slot number: %d\n", slotNumber)
	case errors.Is(err, ErrLotFull):
		s.println("Sorry, parking lot is full")
	case errors.Is(err, ErrAlreadyParked):
		s.printf("Vehicle %s is already parked\n", parts[1])
	default:
		s.printError(err)
	}
}

func (s *Shell) handleLeave(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	if len(parts) != 2 {
		s.usage(span, "leave <slot_number>")
		return
	}

	slotNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		span.AddEvent("invalid_slot_number")
		s.println("Invalid slot number")
		return
	}

	err = s.parkingLot.Leave(ctx, slotNumber)
	switch {
	case err == nil:
		s.printf("Slot number %d is free\n", slotNumber)
	case errors.Is(err, ErrSlotNotInUse):
		s.printf("Slot number %d is not in use\n", slotNumber)
	default:
		s.printError(err)
	}
}

func (s *Shell) handleStatus(ctx context.Context, parts []string) {
	if len(parts) != 1 {
		s.usage(trace.SpanFromContext(ctx), "status")
		return
	}

	status, err := s.parkingLot.GetStatus(ctx)
	if err != nil {
		s.printError(err)
		return
	}

	if len(status.Slots) == 0 {
		s.println("Parking lot is empty")
		return
	}

	s.println("Slot No.\tRegistration No\tColour")
	for _, slot := range status.Slots {
		s.printf("%d\t\t%s\t%s\n", slot.Number, slot.Vehicle.RegistrationNumber, slot.Vehicle.Color)
	}
}

func (s *Shell) handleRegistrationNumbersForColour(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.usage(trace.SpanFromContext(ctx), "registration_numbers_for_cars_with_colour <colour>")
		return
	}

	registrations, err := s.parkingLot.RegistrationNumbersByColor(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	s.printList(registrations)
}

func (s *Shell) handleSlotNumbersForColour(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.usage(trace.SpanFromContext(ctx), "slot_numbers_for_cars_with_colour <colour>")
		return
	}

	slotNumbers, err := s.parkingLot.SlotNumbersByColor(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	values := make([]string, len(slotNumbers))
	for i, n := range slotNumbers {
		values[i] = strconv.Itoa(n)
	}
	s.printList(values)
}

func (s *Shell) handleSlotNumberForRegistrationNumber(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.usage(trace.SpanFromContext(ctx), "slot_number_for_registration_number <registration_number>")
		return
	}

	slotNumber, err := s.parkingLot.GetSlotByRegistrationNumber(ctx, parts[1])
	switch {
	case err == nil:
		s.printf("%d\n", slotNumber)
	case errors.Is(err, ErrNotFound):
		s.println("Not found")
	default:
		s.printError(err)
	}
}

func (s *Shell) usage(span trace.Span, usage string) {
	span.AddEvent("invalid_arguments")
	s.println("Usage:", usage)
}

func (s *Shell) printList(values []string) {
	if len(values) == 0 {
		s.println("Not found")
		return
	}
	s.println(strings.Join(values, ", "))
}

func (s *Shell) printError(err error) {
	if errors.Is(err, ErrLotNotCreated) {
		s.println("Parking lot not created")
		return
	}
	s.printf("Error: %s\n", err)
}

func (s *Shell) println(args ...any) {
	fmt.Fprintln(s.out, args...)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
