package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// AppID salts the machine ID so the station ID doesn't expose it.
const AppID = "v2x.go"

// MachineID retrieves the unique ID identifying the machine, or a
// random one when the machine ID is not available.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id unavailable, using a random station id: %v", err)
		return uuid.NewString()
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}
