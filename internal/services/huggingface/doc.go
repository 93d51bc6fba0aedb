// Package huggingface generates scene images through the Hugging Face
// inference API (POST {base}/models/{model} with {"inputs": prompt}). The
// response body is the encoded image.
package huggingface
