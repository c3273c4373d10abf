// Package model defines core data structures for netguard.
package model

import "time"

// Protocol is the transport or application protocol of a flow.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
)

// Protocols lists every protocol the generator can emit.
var Protocols = []Protocol{ProtocolTCP, ProtocolUDP, ProtocolHTTP, ProtocolHTTPS}

// ThreatType names the kind of attack a malicious flow is attributed to.
type ThreatType string

const (
	ThreatPortScan         ThreatType = "Port Scan"
	ThreatDDoS             ThreatType = "DDoS"
	ThreatBruteForce       ThreatType = "Brute Force"
	ThreatDataExfiltration ThreatType = "Data Exfiltration"
)

// ThreatTypes lists every threat type.
var ThreatTypes = []ThreatType{ThreatPortScan, ThreatDDoS, ThreatBruteForce, ThreatDataExfiltration}

// Classification is the verdict label attached to a malicious flow.
type Classification string

const (
	ClassSuspicious Classification = "Suspicious"
	ClassMalicious  Classification = "Malicious"
	ClassUnknown    Classification = "Unknown"
)

// Classifications lists every classification label.
var Classifications = []Classification{ClassSuspicious, ClassMalicious, ClassUnknown}

// ThreatLevel is a coarse severity derived from alert volume.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Flow holds the raw features of one observed network flow.
type Flow struct {
	Timestamp       time.Time `json:"timestamp"`
	SourceIP        string    `json:"source_ip"`
	DestinationIP   string    `json:"destination_ip"`
	Protocol        Protocol  `json:"protocol"`
	Port            int       `json:"port"`
	Bytes           int64     `json:"bytes"`
	Packets         int64     `json:"packets"`
	DurationSeconds float64   `json:"duration"`
}

// ClassificationResult is what a classifier decides about a flow.
type ClassificationResult struct {
	IsMalicious     bool
	ConfidenceScore int
	ThreatType      ThreatType
	Classification  Classification
}

// TrafficEvent is a classified flow as shown on the dashboard.
// ThreatType and Classification are set if and only if IsMalicious is true.
type TrafficEvent struct {
	Flow
	IsMalicious     bool           `json:"is_malicious"`
	ConfidenceScore int            `json:"confidence_score"`
	ThreatType      ThreatType     `json:"threat_type,omitempty"`
	Classification  Classification `json:"classification,omitempty"`
}

// Alert is a traffic event promoted into the alert list.
type Alert struct {
	TrafficEvent
	ID         string    `json:"id,omitempty"`
	PromotedAt time.Time `json:"promoted_at,omitempty"`
}

// TopTalker summarises the traffic of one address.
type TopTalker struct {
	IP          string `json:"ip"`
	Bytes       int64  `json:"bytes"`
	Packets     int64  `json:"packets"`
	Connections int    `json:"connections"`
}

// NetworkStats is the aggregate snapshot of a monitoring session.
type NetworkStats struct {
	TotalTraffic      int64          `json:"total_traffic"`
	ActiveConnections int            `json:"active_connections"`
	AlertsToday       int            `json:"alerts_today"`
	ThreatLevel       ThreatLevel    `json:"threat_level"`
	Protocols         map[string]int `json:"protocols,omitempty"`
	TopTalkers        []TopTalker    `json:"top_talkers,omitempty"`
}

// NewNetworkStats returns the stats of a session that has seen nothing.
func NewNetworkStats() NetworkStats {
	return NetworkStats{
		ThreatLevel: ThreatLow,
		Protocols:   make(map[string]int),
	}
}

// Clone returns a deep copy of the stats.
func (s NetworkStats) Clone() NetworkStats {
	out := s
	if s.Protocols != nil {
		out.Protocols = make(map[string]int, len(s.Protocols))
		for k, v := range s.Protocols {
			out.Protocols[k] = v
		}
	}
	if s.TopTalkers != nil {
		out.TopTalkers = append([]TopTalker(nil), s.TopTalkers...)
	}
	return out
}

// TrafficResponse is the body of GET /api/network/traffic.
type TrafficResponse struct {
	Data []TrafficEvent `json:"data"`
}

// AlertsResponse is the body of GET /api/network/alerts.
type AlertsResponse struct {
	Alerts []Alert `json:"alerts"`
}

// PhishingRequest is the body of POST /api/phishing/check.
type PhishingRequest struct {
	URL string `json:"url"`
}

// PhishingAnalysis holds the per-signal breakdown of a phishing check.
type PhishingAnalysis struct {
	DomainAgeDays          *int  `json:"domain_age_days,omitempty"`
	SuspiciousKeywords     *bool `json:"suspicious_keywords,omitempty"`
	TLSCertificateValid    *bool `json:"tls_certificate_valid,omitempty"`
	MisleadingDomain       *bool `json:"misleading_domain,omitempty"`
	SuspiciousRedirects    *bool `json:"suspicious_redirects,omitempty"`
	Blacklisted            *bool `json:"blacklisted,omitempty"`
	SimilarToKnownPhishing *bool `json:"similar_to_known_phishing,omitempty"`
}

// PhishingResult is the response of POST /api/phishing/check.
type PhishingResult struct {
	URL             string           `json:"url"`
	IsPhishing      bool             `json:"is_phishing"`
	ConfidenceScore float64          `json:"confidence_score"`
	ThreatLevel     string           `json:"threat_level"`
	Analysis        PhishingAnalysis `json:"analysis"`
	TimeAnalyzed    string           `json:"time_analyzed"`
}

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a short user-facing message.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	Time        time.Time `json:"time"`
}

// MonitorStatus summarises a monitoring session for status output.
type MonitorStatus struct {
	State       string      `json:"state"`
	Loading     bool        `json:"loading"`
	Ticks       uint64      `json:"ticks"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	Events      int         `json:"events"`
	Alerts      int         `json:"alerts"`
	ThreatLevel ThreatLevel `json:"threat_level"`
	LastError   string      `json:"last_error,omitempty"`
}
