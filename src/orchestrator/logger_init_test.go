package orchestrator

import "github.com/techhub5500/Yield-sub002/src/logger"

func init() {
	logger.InitLogger("error")
}
