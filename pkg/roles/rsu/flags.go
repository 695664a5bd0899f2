package rsu

import (
	"strconv"
)

func uint8Flag(v *uint8) func(string) error {
	return func(s string) error {
		n, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return err
		}
		*v = uint8(n)
		return nil
	}
}

func int8Flag(v *int8) func(string) error {
	return func(s string) error {
		n, err := strconv.ParseInt(s, 0, 8)
		if err != nil {
			return err
		}
		*v = int8(n)
		return nil
	}
}

func uint64Flag(v *uint64) func(string) error {
	return func(s string) error {
		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return err
		}
		*v = n
		return nil
	}
}
