// Package retry retries operations that fail transiently, backing off
// exponentially between attempts.
//
// [Do] is used where anchorage polls state written by external tools, such as
// the docker-machine record of a freshly created machine. Errors wrapped with
// [Fatal] stop the loop immediately.
package retry
