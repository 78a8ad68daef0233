// Package telemetry defines the metric providers and the published record
// for the statmq agent.
//
// This package manages:
//   - The Provider interface and the CPU temperature provider (sysfs)
//   - The Record: identity fields plus dynamic metric values, serialised
//     to the JSON wire shape before each publish
//   - Host identity resolution (hostname, outbound IP, MAC address)
//
// # Wire shape
//
// A published record looks like:
//
//	{
//	  "macAddress": "B8:27:EB:12:34:56",
//	  "host": "office-pi",
//	  "ipAddress": "192.168.1.40",
//	  "brokerAddress": "192.168.1.10",
//	  "brokerPort": 1883,
//	  "timeStamp": "2026-08-23 14:05:09",
//	  "cpuTemp": 42.0,
//	  "notes": "rack 3, shelf 2"
//	}
//
// The timeStamp field always reflects the instant of the most recent publish
// attempt, not when the metrics were sampled.
package telemetry
