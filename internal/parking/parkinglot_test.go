package parking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLot(t *testing.T, capacity int) *ParkingLot {
	t.Helper()
	pl, err := NewParkingLot(capacity)
	require.NoError(t, err)
	return pl
}

// assertConsistent checks the cross-index invariants of the lot.
func assertConsistent(t *testing.T, pl *ParkingLot) {
	t.Helper()

	assert.Equal(t, pl.Capacity(), pl.Occupied()+pl.Available(), "occupied + free must equal capacity")
	assert.Len(t, pl.registrations, pl.Occupied())

	indexed := 0
	for color, registrations := range pl.colors {
		assert.Len(t, pl.SlotNumbersByColor(color), len(registrations))
		indexed += len(registrations)
	}
	assert.Equal(t, pl.Occupied(), indexed)

	for _, slot := range pl.GetStatus() {
		assert.False(t, pl.free.Contains(slot.Number), "slot %d is both free and occupied", slot.Number)
		slotNumber, ok := pl.registrations[slot.Vehicle.RegistrationNumber]
		require.True(t, ok)
		assert.Equal(t, slot.Number, slotNumber)
		assert.Contains(t, pl.colors[slot.Vehicle.Color], slot.Vehicle.RegistrationNumber)
	}
}

func TestNewParkingLot(t *testing.T) {
	pl := newTestLot(t, 6)

	assert.Equal(t, 6, pl.Capacity())
	assert.Equal(t, 6, pl.Available())
	assert.Equal(t, 0, pl.Occupied())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, pl.FreeSlots())
	assert.Empty(t, pl.GetStatus())
}

func TestNewParkingLotInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		pl, err := NewParkingLot(capacity)
		assert.Nil(t, pl)
		assert.True(t, errors.Is(err, ErrInvalidCapacity))
	}
}

func TestInitializeDiscardsState(t *testing.T) {
	pl := newTestLot(t, 2)
	_, err := pl.Park("KA01HH1234", "White")
	require.NoError(t, err)

	require.NoError(t, pl.Initialize(4))

	assert.Equal(t, 4, pl.Capacity())
	assert.Equal(t, []int{1, 2, 3, 4}, pl.FreeSlots())
	assert.Empty(t, pl.GetStatus())
	assert.Empty(t, pl.RegistrationNumbersByColor("White"))
	_, err = pl.GetSlotByRegistrationNumber("KA01HH1234")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInitializeInvalidCapacityKeepsState(t *testing.T) {
	pl := newTestLot(t, 2)
	_, err := pl.Park("KA01HH1234", "White")
	require.NoError(t, err)

	err = pl.Initialize(0)
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
	assert.Equal(t, 2, pl.Capacity())
	assert.Equal(t, 1, pl.Occupied())
}

func TestParkingLotPark(t *testing.T) {
	pl := newTestLot(t, 3)

	for i, registration := range []string{"KA01HH1234", "KA01HH9999", "KA01BB0001"} {
		slotNumber, err := pl.Park(registration, "White")
		require.NoError(t, err)
		assert.Equal(t, i+1, slotNumber)
	}

	_, err := pl.Park("KA01HH7777", "Blue")
	assert.True(t, errors.Is(err, ErrLotFull))
	assertConsistent(t, pl)
}

func TestParkAlwaysTakesLowestFreeSlot(t *testing.T) {
	pl := newTestLot(t, 10)
	for i := 0; i < 10; i++ {
		_, err := pl.Park(string(rune('A'+i)), "Grey")
		require.NoError(t, err)
	}

	for _, slotNumber := range []int{7, 3, 9, 5} {
		require.NoError(t, pl.Leave(slotNumber))
	}
	assert.Equal(t, []int{3, 5, 7, 9}, pl.FreeSlots())

	for _, expected := range []int{3, 5, 7, 9} {
		slotNumber, err := pl.Park("R"+string(rune('0'+expected)), "Grey")
		require.NoError(t, err)
		assert.Equal(t, expected, slotNumber)
		assertConsistent(t, pl)
	}
}

func TestParkOnFullLotChangesNothing(t *testing.T) {
	pl := newTestLot(t, 1)

	slotNumber, err := pl.Park("KA01HH1234", "White")
	require.NoError(t, err)
	assert.Equal(t, 1, slotNumber)

	_, err = pl.Park("KA01HH9999", "White")
	assert.True(t, errors.Is(err, ErrLotFull))
	assert.Empty(t, pl.FreeSlots())
	assert.Equal(t, 1, pl.Occupied())
	assert.Equal(t, []string{"KA01HH1234"}, pl.RegistrationNumbersByColor("White"))
	_, err = pl.GetSlotByRegistrationNumber("KA01HH9999")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestParkRejectsInvalidVehicle(t *testing.T) {
	pl := newTestLot(t, 2)

	_, err := pl.Park("", "White")
	assert.True(t, errors.Is(err, ErrInvalidVehicle))
	_, err = pl.Park("KA01HH1234", "")
	assert.True(t, errors.Is(err, ErrInvalidVehicle))
	assert.Equal(t, []int{1, 2}, pl.FreeSlots())
}

// A registration that is already parked is rejected instead of overwriting
// its registration index entry.
func TestParkRejectsDuplicateRegistration(t *testing.T) {
	pl := newTestLot(t, 3)
	_, err := pl.Park("KA01HH1234", "White")
	require.NoError(t, err)

	_, err = pl.Park("KA01HH1234", "Black")
	assert.True(t, errors.Is(err, ErrAlreadyParked))

	assert.Equal(t, 1, pl.Occupied())
	assert.Equal(t, []int{2, 3}, pl.FreeSlots())
	assert.Empty(t, pl.RegistrationNumbersByColor("Black"))
	slotNumber, err := pl.GetSlotByRegistrationNumber("KA01HH1234")
	require.NoError(t, err)
	assert.Equal(t, 1, slotNumber)
	assertConsistent(t, pl)
}

func TestParkThenLeaveRestoresFreeSlots(t *testing.T) {
	pl := newTestLot(t, 4)
	_, err := pl.Park("KA01HH1234", "White")
	require.NoError(t, err)
	before := pl.FreeSlots()

	slotNumber, err := pl.Park("KA01HH9999", "Red")
	require.NoError(t, err)
	require.NoError(t, pl.Leave(slotNumber))

	assert.Equal(t, before, pl.FreeSlots())
	_, err = pl.GetSlotByRegistrationNumber("KA01HH9999")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, pl.RegistrationNumbersByColor("Red"))
	assertConsistent(t, pl)
}

func TestParkingLotLeave(t *testing.T) {
	pl := newTestLot(t, 3)
	_, _ = pl.Park("KA01HH1234", "White")
	_, _ = pl.Park("KA01HH9999", "Black")

	require.NoError(t, pl.Leave(1))

	_, ok := pl.VehicleAt(1)
	assert.False(t, ok)

	slotNumber, err := pl.Park("KA01BB0001", "Red")
	require.NoError(t, err)
	assert.Equal(t, 1, slotNumber)
}

func TestLeaveUnusedSlot(t *testing.T) {
	pl := newTestLot(t, 3)
	_, _ = pl.Park("KA01HH1234", "White")

	for _, slotNumber := range []int{2, 3, 0, -1, 4} {
		err := pl.Leave(slotNumber)
		assert.True(t, errors.Is(err, ErrSlotNotInUse), "slot %d", slotNumber)
	}

	require.NoError(t, pl.Leave(1))
	assert.True(t, errors.Is(pl.Leave(1), ErrSlotNotInUse))

	assert.Equal(t, []int{1, 2, 3}, pl.FreeSlots())
	assertConsistent(t, pl)
}

func TestLeaveRemovesSingleColorEntry(t *testing.T) {
	pl := newTestLot(t, 3)
	_, _ = pl.Park("A", "White")
	_, _ = pl.Park("B", "White")
	_, _ = pl.Park("C", "White")

	require.NoError(t, pl.Leave(2))

	assert.Equal(t, []string{"A", "C"}, pl.RegistrationNumbersByColor("White"))
	assert.Equal(t, []int{1, 3}, pl.SlotNumbersByColor("White"))
}

func TestRegistrationNumbersByColorReturnsCopy(t *testing.T) {
	pl := newTestLot(t, 2)
	_, _ = pl.Park("A", "White")

	registrations := pl.RegistrationNumbersByColor("White")
	registrations[0] = "tampered"

	assert.Equal(t, []string{"A"}, pl.RegistrationNumbersByColor("White"))
}

func TestColorLookupsAreCaseSensitive(t *testing.T) {
	pl := newTestLot(t, 2)
	_, _ = pl.Park("A", "White")

	assert.Empty(t, pl.RegistrationNumbersByColor("white"))
	assert.Empty(t, pl.SlotNumbersByColor("white"))
	assert.Empty(t, pl.SlotNumbersByColor("Purple"))
}

func TestParkingLotGetStatusKeepsParkOrder(t *testing.T) {
	pl := newTestLot(t, 6)
	_, _ = pl.Park("KA01HH1234", "White")
	_, _ = pl.Park("KA01HH9999", "White")
	_, _ = pl.Park("KA01BB0001", "Black")
	_, _ = pl.Park("KA01HH7777", "Red")
	_, _ = pl.Park("KA01HH2701", "Blue")
	_, _ = pl.Park("KA01HH3141", "Black")

	require.NoError(t, pl.Leave(4))
	_, _ = pl.Park("KA01P333", "White")

	var numbers []int
	for _, slot := range pl.GetStatus() {
		numbers = append(numbers, slot.Number)
	}
	assert.Equal(t, []int{1, 2, 3, 5, 6, 4}, numbers)

	last := pl.GetStatus()[5]
	assert.Equal(t, NewVehicle("KA01P333", "White"), last.Vehicle)
}

func TestParkingLotScenario(t *testing.T) {
	pl := newTestLot(t, 6)

	vehicles := []Vehicle{
		NewVehicle("A", "White"),
		NewVehicle("B", "White"),
		NewVehicle("C", "Black"),
		NewVehicle("D", "Red"),
		NewVehicle("E", "Blue"),
		NewVehicle("F", "Black"),
	}
	for i, v := range vehicles {
		slotNumber, err := pl.Park(v.RegistrationNumber, v.Color)
		require.NoError(t, err)
		assert.Equal(t, i+1, slotNumber)
	}

	require.NoError(t, pl.Leave(4))
	assert.Equal(t, []int{4}, pl.FreeSlots())

	slotNumber, err := pl.Park("G", "White")
	require.NoError(t, err)
	assert.Equal(t, 4, slotNumber)

	assert.Equal(t, []string{"A", "B", "G"}, pl.RegistrationNumbersByColor("White"))
	assert.Equal(t, []int{1, 2, 4}, pl.SlotNumbersByColor("White"))

	slotNumber, err = pl.GetSlotByRegistrationNumber("F")
	require.NoError(t, err)
	assert.Equal(t, 6, slotNumber)

	_, err = pl.GetSlotByRegistrationNumber("Z")
	assert.True(t, errors.Is(err, ErrNotFound))

	assertConsistent(t, pl)
}

func TestZeroValueParkingLot(t *testing.T) {
	var pl ParkingLot

	_, err := pl.Park("A", "White")
	assert.True(t, errors.Is(err, ErrLotFull))
	assert.True(t, errors.Is(pl.Leave(1), ErrSlotNotInUse))
	assert.Empty(t, pl.GetStatus())
	assert.Empty(t, pl.FreeSlots())
	assert.Equal(t, 0, pl.Available())
}
