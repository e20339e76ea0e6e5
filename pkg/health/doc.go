/*
Package health provides pluggable health check mechanisms.

Checker is the shared interface (Check, Type); TCPChecker and HTTPChecker
are the two implementations kept here. topicgate wires TCPChecker against
the configured broker address for the ambient /ready endpoint — readiness
depends on whether the broker is reachable, not on any container lifecycle
(there is nothing here analogous to exec-into-a-container, so no ExecChecker
is carried).

Status tracks consecutive successes/failures against a Config's Retries
threshold, with an optional StartPeriod grace window before checks count
against a newly started dependency.
*/
package health
