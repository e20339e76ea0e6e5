/*
Package log provides structured logging for topicgate using zerolog.

Init configures the global Logger from a Config (level, JSON vs console
output, destination writer); everything else is a thin helper over it.
WithComponent scopes a child logger to a subsystem name ("broker",
"topicmanager", "rpc", ...); WithTopicID and WithPublisherID scope one to a
specific topic or publisher for request-scoped log lines. Info/Debug/Warn/
Error/Errorf/Fatal are free functions against the global Logger for the
common case where a call site doesn't need a scoped child logger.
*/
package log
