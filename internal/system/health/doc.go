// Package health probes the deployed service's API-key-guarded status
// endpoint after a deploy. The probe is advisory: the endpoint itself is the
// deployed application's contract, not this tool's.
package health
