package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVehicle(t *testing.T) {
	vehicle := NewVehicle("KA01HH1234", "White")

	assert.Equal(t, "KA01HH1234", vehicle.RegistrationNumber)
	assert.Equal(t, "White", vehicle.Color)
	assert.NoError(t, vehicle.validate())
}

func TestVehicleValidate(t *testing.T) {
	assert.ErrorIs(t, NewVehicle("", "White").validate(), ErrInvalidVehicle)
	assert.ErrorIs(t, NewVehicle("KA01HH1234", "").validate(), ErrInvalidVehicle)
}
