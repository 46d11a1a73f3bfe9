package service

const (
	NoticeAttendanceSaved      = "attendance.saved"
	NoticeAnnouncementCreated  = "announcement.created"
	// NoticeAnnouncementInactive replaces announcement.created for an
	// announcement that is scheduled or already expired.
	NoticeAnnouncementInactive = "announcement.inactive"
	NoticeEventCreated         = "event.created"
)

// Notifier receives notices for the live feed. Delivery is best effort.
type Notifier interface {
	Notify(kind string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, any) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
