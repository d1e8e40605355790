package parking

import (
	"fmt"
	"slices"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"
)

// ParkingLot allocates the lowest numbered free slot and indexes parked
// vehicles by slot, registration number and color. It is not safe for
// concurrent use; see InstrumentedParkingLot.
type ParkingLot struct {
	capacity int
	free     *freeSlots

	// slot -> Vehicle, in park order
	occupancy *linkedhashmap.Map

	registrations map[string]int
	colors        map[string][]string
}

func NewParkingLot(capacity int) (*ParkingLot, error) {
	pl := &ParkingLot{}
	if err := pl.Initialize(capacity); err != nil {
		return nil, err
	}
	return pl, nil
}

// Initialize discards every parked vehicle and resets the lot to capacity
// free slots. An invalid capacity leaves the current state untouched.
func (pl *ParkingLot) Initialize(capacity int) error {
	if capacity <= 0 {
		return errors.Wrapf(ErrInvalidCapacity, "capacity %d", capacity)
	}

	pl.capacity = capacity
	pl.free = newFreeSlots(capacity)
	pl.occupancy = linkedhashmap.New()
	pl.registrations = make(map[string]int)
	pl.colors = make(map[string][]string)
	return nil
}

func (pl *ParkingLot) Park(registrationNumber, color string) (int, error) {
	vehicle := NewVehicle(registrationNumber, color)
	if err := vehicle.validate(); err != nil {
		return 0, err
	}

	if pl.free == nil {
		return 0, ErrLotFull
	}

	if slotNumber, ok := pl.registrations[registrationNumber]; ok {
		return 0, errors.Wrapf(ErrAlreadyParked, "%s at slot %d", registrationNumber, slotNumber)
	}

	slotNumber, ok := pl.free.Take()
	if !ok {
		return 0, ErrLotFull
	}

	pl.occupancy.Put(slotNumber, vehicle)
	pl.registrations[registrationNumber] = slotNumber
	pl.colors[color] = append(pl.colors[color], registrationNumber)

	return slotNumber, nil
}

func (pl *ParkingLot) Leave(slotNumber int) error {
	vehicle, ok := pl.vehicleAt(slotNumber)
	if !ok {
		return errors.Wrapf(ErrSlotNotInUse, "slot %d", slotNumber)
	}

	pl.free.Release(slotNumber)
	delete(pl.registrations, vehicle.RegistrationNumber)
	pl.removeFromColor(vehicle)
	pl.occupancy.Remove(slotNumber)

	return nil
}

// GetStatus returns the occupied slots in the order their vehicles parked.
func (pl *ParkingLot) GetStatus() []Slot {
	if pl.occupancy == nil {
		return nil
	}

	occupied := make([]Slot, 0, pl.occupancy.Size())
	it := pl.occupancy.Iterator()
	for it.Next() {
		occupied = append(occupied, Slot{
			Number:  it.Key().(int),
			Vehicle: it.Value().(Vehicle),
		})
	}
	return occupied
}

func (pl *ParkingLot) RegistrationNumbersByColor(color string) []string {
	return slices.Clone(pl.colors[color])
}

func (pl *ParkingLot) SlotNumbersByColor(color string) []int {
	registrations := pl.colors[color]
	slotNumbers := make([]int, 0, len(registrations))
	for _, registrationNumber := range registrations {
		slotNumber, ok := pl.registrations[registrationNumber]
		if !ok {
			panic(fmt.Sprintf("parking: %s indexed under color %s but not parked", registrationNumber, color))
		}
		slotNumbers = append(slotNumbers, slotNumber)
	}
	return slotNumbers
}

func (pl *ParkingLot) GetSlotByRegistrationNumber(registrationNumber string) (int, error) {
	slotNumber, ok := pl.registrations[registrationNumber]
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "registration %s", registrationNumber)
	}
	return slotNumber, nil
}

// VehicleAt returns the vehicle parked in slotNumber.
func (pl *ParkingLot) VehicleAt(slotNumber int) (Vehicle, bool) {
	return pl.vehicleAt(slotNumber)
}

func (pl *ParkingLot) Capacity() int {
	return pl.capacity
}

func (pl *ParkingLot) Occupied() int {
	if pl.occupancy == nil {
		return 0
	}
	return pl.occupancy.Size()
}

func (pl *ParkingLot) Available() int {
	if pl.free == nil {
		return 0
	}
	return pl.free.Len()
}

// FreeSlots returns the unoccupied slot numbers in ascending order.
func (pl *ParkingLot) FreeSlots() []int {
	if pl.free == nil {
		return nil
	}
	return pl.free.Numbers()
}

func (pl *ParkingLot) vehicleAt(slotNumber int) (Vehicle, bool) {
	if pl.occupancy == nil {
		return Vehicle{}, false
	}
	value, ok := pl.occupancy.Get(slotNumber)
	if !ok {
		return Vehicle{}, false
	}
	return value.(Vehicle), true
}

// removeFromColor drops exactly one occurrence of the vehicle's registration.
func (pl *ParkingLot) removeFromColor(vehicle Vehicle) {
	registrations := pl.colors[vehicle.Color]
	i := slices.Index(registrations, vehicle.RegistrationNumber)
	if i < 0 {
		return
	}
	registrations = slices.Delete(registrations, i, i+1)
	if len(registrations) == 0 {
		delete(pl.colors, vehicle.Color)
		return
	}
	pl.colors[vehicle.Color] = registrations
}
