package milestone

import "github.com/nasa/opera-sds-bach-api/internal/store"

// Transfer states derived from archive delivery fields.
const (
	TransferCNMRSuccess = "cnm_r_success"
	TransferCNMRFailure = "cnm_r_failure"
	TransferCNMSSuccess = "cnm_s_success"
	TransferCNMSFailure = "cnm_s_failure"
	TransferUnknown     = "unknown"
)

// TransferStatus reports how far a product got in delivery to the archive. A CNM-R response
// takes precedence over the CNM-S notification.
func TransferStatus(doc store.Document) string {
	if status, ok := doc.Lookup("daac_delivery_status"); ok {
		if status == "SUCCESS" {
			return TransferCNMRSuccess
		}
		return TransferCNMRFailure
	}
	if status, ok := doc.Lookup("daac_CNM_S_status"); ok {
		if status == "SUCCESS" {
			return TransferCNMSSuccess
		}
		return TransferCNMSFailure
	}
	return TransferUnknown
}
