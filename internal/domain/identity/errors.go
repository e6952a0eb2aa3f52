package identity

import "errors"

var (
	ErrDoctorNotFound  = errors.New("identity: doctor not found")
	ErrPatientNotFound = errors.New("identity: patient not found")
	ErrInvalidProfile  = errors.New("identity: invalid profile")
)
