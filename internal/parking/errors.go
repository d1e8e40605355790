package parking

import "github.com/pkg/errors"

var (
	ErrInvalidCapacity = errors.New("capacity must be greater than 0")
	ErrInvalidVehicle  = errors.New("registration number and color are required")
	ErrLotFull         = errors.New("parking lot is full")
	ErrSlotNotInUse    = errors.New("slot is not in use")
	ErrAlreadyParked   = errors.New("vehicle is already parked")
	ErrNotFound        = errors.New("not found")
	ErrLotNotCreated   = errors.New("parking lot not created")
)
