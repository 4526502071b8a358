package discosync

// SyncService is the orchestration layer that coordinates the local state
// file, the version codec and one remote backend to perform the backup,
// list and restore operations needed by the CLI.
//
// All operations are synchronous: each remote call completes or fails
// before the next one starts.
type SyncService struct {
	backend Backend
	fsmgr   FilesystemManager
	codec   *VersionCodec
	logger  Logger
}

// NewSyncService creates a new SyncService with the provided dependencies.
func NewSyncService(backend Backend, fsmgr FilesystemManager, codec *VersionCodec, logger Logger) *SyncService {
	if codec == nil {
		codec = LocalVersionCodec()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &SyncService{
		backend: backend,
		fsmgr:   fsmgr,
		codec:   codec,
		logger:  logger,
	}
}

// Codec returns the version codec used by the service.
func (s *SyncService) Codec() *VersionCodec {
	return s.codec
}
