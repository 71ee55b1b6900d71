package services

import (
	"encoding/json"
	"log"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
)

// DBNotifier writes database notifications for an organization's admins.
// Delivery is asynchronous and fire-and-forget: failures are logged and
// swallowed so they can never block or fail the submission.
type DBNotifier struct {
	Users         *repos.UserRepo
	Notifications *repos.NotificationRepo
}

func NewDBNotifier(users *repos.UserRepo, notifications *repos.NotificationRepo) *DBNotifier {
	return &DBNotifier{Users: users, Notifications: notifications}
}

func (n *DBNotifier) LoanSubmitted(loan *domain.Loan, itemName string) {
	go n.deliver(loan, itemName)
}

func (n *DBNotifier) deliver(loan *domain.Loan, itemName string) {
	admins, err := n.Users.OrgAdmins(loan.OrganizationID)
	if err != nil {
		logNotifyError("list admins", err)
		return
	}
	for _, admin := range admins {
		err := n.Notifications.Insert(&domain.Notification{
			UserID:       admin.ID,
			LoanID:       loan.ID,
			LoanCode:     loan.LoanCode,
			BorrowerName: loan.BorrowerName,
			ItemName:     itemName,
			Message:      "New loan request from " + loan.BorrowerName,
		})
		if err != nil {
			logNotifyError("insert notification", err)
		}
	}
}

func logNotifyError(step string, err error) {
	b, _ := json.Marshal(map[string]any{"level": "error", "action": "notify." + step, "err": err.Error()})
	log.Println(string(b))
}
