// Package callserver implements an outbound IVR call orchestration
// service on Amazon Connect.
//
// The service provides:
//   - Outbound call initiation with per-call caller context
//   - Call lifecycle tracking via status polling (INITIATED through
//     COMPLETED/FAILED)
//   - Real-time transcript capture from Contact Lens analysis segments,
//     deduplicated and ordered by call offset
//   - Automatic resolution of IVR prompts into structured answers
//     through a reasoning oracle, scoped to a claims or eligibility flow
//   - Live observation of a call over WebSocket with periodic snapshots
package callserver
