package parking

// Vehicle is never mutated once parked. Colors are matched case-sensitively.
type Vehicle struct {
	RegistrationNumber string
	Color              string
}

func NewVehicle(registrationNumber, color string) Vehicle {
	return Vehicle{
		RegistrationNumber: registrationNumber,
		Color:              color,
	}
}

func (v Vehicle) validate() error {
	if v.RegistrationNumber == "" || v.Color == "" {
		return ErrInvalidVehicle
	}
	return nil
}
