package request

import (
	"fmt"
	"strconv"

	"github.com/choirhub/choir-api/internal/domain"
)

// SaveAttendanceRequest maps user ids to the submitted status, for example
// {"12": "Present", "15": "Absent"}.
type SaveAttendanceRequest map[string]string

// ToStatuses parses the user ids. Status values are checked by the service.
func (req SaveAttendanceRequest) ToStatuses() (map[uint]domain.Status, error) {
	statuses := make(map[uint]domain.Status, len(req))
	for key, status := range req {
		userID, err := strconv.ParseUint(key, 10, 64)
		if err != nil || userID == 0 {
			return nil, fmt.Errorf("invalid user ID %q", key)
		}
		statuses[uint(userID)] = domain.Status(status)
	}
	return statuses, nil
}
