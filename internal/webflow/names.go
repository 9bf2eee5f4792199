// Copyright 2022 Dimitrij Drus <dadrus@gmx.de>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package webflow

const (
	FlowLogin  = "login"
	FlowLogout = "logout"
)

// state ids of the login flow.
const (
	StateInitialFlowSetup           = "initialFlowSetup"
	StateInitializeLoginForm        = "initializeLoginForm"
	StateViewLoginForm              = "viewLoginForm"
	StateRealSubmit                 = "realSubmit"
	StateWarn                       = "warn"
	StateCreateTicketGrantingTicket = "createTicketGrantingTicket"
	StateLoginSuccess               = "loginSuccess"
	StateLoginFailure               = "loginFailure"
	StateStartX509Authenticate      = "startX509Authenticate"
	StateMfaUnavailable             = "mfaUnavailable"
	StateAUPCheck                   = "aupCheck"
	StateAUPView                    = "aupView"
	StateAUPSubmit                  = "aupSubmit"
	StateConsentCheck               = "consentCheck"
	StateConsentView                = "consentView"
	StateConsentConfirm             = "consentConfirm"
)

// state ids of the logout flow.
const (
	StateTerminateSession = "terminateSession"
	StateFinishLogout     = "finishLogout"
	StateLogoutFinished   = "logoutFinished"
)

const (
	ActionInitialFlowSetup           = "initialFlowSetup"
	ActionInitializeLoginForm        = "initializeLoginForm"
	ActionAuthenticate               = "authenticate"
	ActionCreateTicketGrantingTicket = "createTicketGrantingTicket"
	ActionClearWebflowCredentials    = "clearWebflowCredentials"
	ActionX509Check                  = "x509Check"
	ActionAUPCheck                   = "aupCheck"
	ActionAUPSubmit                  = "aupSubmit"
	ActionConsentCheck               = "consentCheck"
	ActionConsentConfirm             = "consentConfirm"
	ActionTerminateSession           = "terminateSession"
	ActionFinishLogout               = "finishLogout"
)

const (
	ViewLogin   = "loginView"
	ViewWarning = "warningView"
	ViewMfa     = "mfaTokenView"
	ViewAUP     = "aupView"
	ViewConsent = "consentView"
)

const (
	ResultSuccess        = "success"
	ResultFailure        = "failure"
	ResultMfaUnavailable = "mfaUnavailable"
	ResultLogout         = "logout"
)

// names of the form fields read by the actions.
const (
	FormUsername               = "username"
	FormPassword               = "password"
	FormToken                  = "token"
	FormService                = "service"
	FormReminderOption         = "reminderOption"
	FormTicketGrantingTicketID = "ticketGrantingTicketId"
)

// names of the execution attributes set by the actions.
const (
	AttributeService                = "service"
	AttributeTicketGrantingTicketID = "ticketGrantingTicketId"
	AttributeMfaDeviceID            = "mfaDeviceId"
	AttributeWarnings               = "warnings"
	AttributeLogoutRedirectURL      = "logoutRedirectUrl"
	AttributeLoggedOutPrincipal     = "loggedOutPrincipal"
)

func mfaChallengeState(providerID string) string { return "mfaChallenge-" + providerID }
func mfaTokenViewState(providerID string) string { return "viewMfaToken-" + providerID }
func mfaVerifyState(providerID string) string    { return "mfaVerify-" + providerID }

func mfaDecisionAction(providerID string) string  { return providerID + "Decision" }
func mfaChallengeAction(providerID string) string { return providerID + "Challenge" }
func mfaVerifyAction(providerID string) string    { return providerID + "Verify" }
