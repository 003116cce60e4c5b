package utils

import (
  "os"
  "strconv"
  "strings"

  "github.com/courseforge/courseforge-backend/internal/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
  val, ok := os.LookupEnv(key)
  if !ok {
    if log != nil {
      log.Debug("Environment variable not found, using default", "env_var", key, "default", defaultVal)
    }
    return defaultVal
  }
  return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
  valStr, ok := os.LookupEnv(key)
  if !ok {
    return defaultVal
  }
  i, err := strconv.Atoi(strings.TrimSpace(valStr))
  if err != nil {
    if log != nil {
      log.Debug("Environment variable could not be parsed as int, using default", "env_var", key, "providedVal", valStr, "error", err)
    }
    return defaultVal
  }
  return i
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
  valStr, ok := os.LookupEnv(key)
  if !ok {
    return defaultVal
  }
  b, err := strconv.ParseBool(strings.TrimSpace(valStr))
  if err != nil {
    if log != nil {
      log.Debug("Environment variable could not be parsed as bool, using default", "env_var", key, "providedVal", valStr, "error", err)
    }
    return defaultVal
  }
  return b
}
