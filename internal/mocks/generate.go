package mocks

//go:generate mockery --name ArtifactStore --srcpkg github.com/aevon-lab/winestats/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Listener --srcpkg github.com/aevon-lab/winestats/internal/trigger --output ./trigger --outpkg triggermocks --with-expecter
//go:generate mockery --name Runner --srcpkg github.com/aevon-lab/winestats/internal/trigger --output ./trigger --outpkg triggermocks --with-expecter
