package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PeluPrice/PeluPrice-MVP/internal/device"
	"github.com/PeluPrice/PeluPrice-MVP/internal/infrastructure/mqtt"
)

type deviceRegisterRequest struct {
	DeviceID        string  `json:"device_id"`
	ActivationKey   string  `json:"activation_key"`
	FirmwareVersion *string `json:"firmware_version,omitempty"`
	HardwareVersion *string `json:"hardware_version,omitempty"`
}

// handleDeviceRegister is the factory/boot endpoint. Devices call it on
// first provisioning and on every boot; registration is an upsert.
func (s *Server) handleDeviceRegister(w http.ResponseWriter, r *http.Request) {
	var req deviceRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	dev, err := s.devices.Register(r.Context(), device.RegisterInput{
		DeviceID:        req.DeviceID,
		ActivationKey:   req.ActivationKey,
		FirmwareVersion: req.FirmwareVersion,
		HardwareVersion: req.HardwareVersion,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

type deviceActivateRequest struct {
	ActivationKey string `json:"activation_key"`
}

// handleDeviceActivate claims an unowned device for the caller.
func (s *Server) handleDeviceActivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeUnauthorized(w, "missing bearer token")
		return
	}

	var req deviceActivateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	dev, err := s.devices.Activate(r.Context(), req.ActivationKey, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logger.Info("device activated", "device_id", dev.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, dev)
}

type heartbeatRequest struct {
	IPAddress       *string `json:"ip_address,omitempty"`
	SignalStrength  *int    `json:"signal_strength,omitempty"`
	BatteryLevel    *int    `json:"battery_level,omitempty"`
	FirmwareVersion *string `json:"firmware_version,omitempty"`
}

// handleDeviceHeartbeat records a liveness report from a device. Fields
// absent from the payload keep their stored values.
func (s *Server) handleDeviceHeartbeat(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	var req heartbeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	dev, err := s.devices.Heartbeat(r.Context(), deviceID, device.HeartbeatInput{
		IPAddress:       req.IPAddress,
		SignalStrength:  req.SignalStrength,
		BatteryLevel:    req.BatteryLevel,
		FirmwareVersion: req.FirmwareVersion,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.WriteHeartbeat(dev.ID, req.BatteryLevel, req.SignalStrength)
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDeviceList returns every device owned by the caller.
func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeUnauthorized(w, "missing bearer token")
		return
	}

	devices, err := s.devices.ListForOwner(r.Context(), userID)
	if err != nil {
		s.logger.Error("listing devices failed", "error", err, "user_id", userID)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleDeviceGet returns one device owned by the caller.
func (s *Server) handleDeviceGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeUnauthorized(w, "missing bearer token")
		return
	}

	dev, err := s.devices.GetForOwner(r.Context(), chi.URLParam(r, "deviceID"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

type triggerRequest struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params,omitempty"`
}

// handleDeviceTrigger publishes a command to the device's command topic.
// Requires the message bus; returns 503 when it is unavailable.
func (s *Server) handleDeviceTrigger(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeUnauthorized(w, "missing bearer token")
		return
	}

	deviceID := chi.URLParam(r, "deviceID")

	// Ownership check before touching the bus.
	dev, err := s.devices.GetForOwner(r.Context(), deviceID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req triggerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	if s.commands == nil || !s.commands.IsConnected() {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "message bus unavailable")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"command":      req.Command,
		"params":       req.Params,
		"requested_by": userID,
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		writeInternalError(w, "internal server error")
		return
	}

	topic := mqtt.Topics{}.DeviceCommands(dev.ID)
	if err := s.commands.PublishJSON(topic, payload); err != nil {
		s.logger.Error("command publish failed", "error", err, "device_id", dev.ID)
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "message bus unavailable")
		return
	}

	s.logger.Info("command dispatched", "device_id", dev.ID, "command", req.Command, "user_id", userID)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "dispatched",
		"device_id": dev.ID,
		"command":   req.Command,
	})
}
