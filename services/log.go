package services

import "github.com/zzoohub/meallog/config"

func logWarn(msg string, kv ...any)  { config.Log.Warnw(msg, kv...) }
func logError(msg string, kv ...any) { config.Log.Errorw(msg, kv...) }
func logInfo(msg string, kv ...any)  { config.Log.Infow(msg, kv...) }
