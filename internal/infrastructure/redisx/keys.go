package redisx

const (
	// Reaper leader lock: lock:checkout:reaper -> holder token
	KeyReaperLock = "lock:checkout:reaper"
)
