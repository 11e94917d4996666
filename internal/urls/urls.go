package urls

// Windows11Download is Microsoft's official Windows 11 disk image page.
// Images from anywhere else should not be trusted.
const Windows11Download = "https://www.microsoft.com/software-download/windows11"

// Windows11Specifications lists the hardware requirements (TPM 2.0, Secure
// Boot, UEFI, 64 GB storage).
const Windows11Specifications = "https://www.microsoft.com/windows/windows-11-specifications"

// EnableTPM explains how to turn on TPM 2.0 in firmware settings.
const EnableTPM = "https://support.microsoft.com/windows/enable-tpm-2-0-on-your-pc-1fd5a332-360d-4f46-a1e7-ae6b0c90645c"

// Rufus is the reference tool for writing bootable drives on real hardware.
const Rufus = "https://rufus.ie/"

// Nativefier wraps a web page as a desktop application; the export screen
// generates commands for it.
const Nativefier = "https://github.com/nativefier/nativefier"

// GeminiEndpoint is the default base URL of the text-generation API.
const GeminiEndpoint = "https://generativelanguage.googleapis.com"

// GeminiAPIKeys is where users create the API key the advisor needs.
const GeminiAPIKeys = "https://aistudio.google.com/apikey"
